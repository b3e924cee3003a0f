package models

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// StudentRef identifies a student on an assessment row or enrolment list. The
// service sends either a bare id or an object carrying the student number.
type StudentRef struct {
	ID       int64  `json:"id,omitempty"`
	Number   string `json:"student_id,omitempty"`
	FullName string `json:"name,omitempty"`
}

// Key is the stable identity used to match rows across fetches.
func (s StudentRef) Key() string {
	if s.Number != "" {
		return s.Number
	}
	if s.ID != 0 {
		return strconv.FormatInt(s.ID, 10)
	}
	return ""
}

// DisplayName falls back to the student number when no name is known.
func (s StudentRef) DisplayName() string {
	if s.FullName != "" {
		return s.FullName
	}
	return s.Key()
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *StudentRef) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*s = StudentRef{}
		return nil
	}
	switch trimmed[0] {
	case '"':
		var number string
		if err := json.Unmarshal(trimmed, &number); err != nil {
			return err
		}
		*s = StudentRef{Number: number}
		return nil
	case '{':
		var raw struct {
			ID                 json.Number `json:"id"`
			StudentID          interface{} `json:"student_id"`
			RegistrationNumber string      `json:"registration_number"`
			IndexNumber        string      `json:"index_number"`
			Name               string      `json:"name"`
			FullName           string      `json:"full_name"`
			StudentName        string      `json:"student_name"`
		}
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return err
		}
		ref := StudentRef{}
		if raw.ID != "" {
			if id, err := raw.ID.Int64(); err == nil {
				ref.ID = id
			}
		}
		ref.Number = firstNonEmpty(stringify(raw.StudentID), raw.RegistrationNumber, raw.IndexNumber)
		ref.FullName = firstNonEmpty(raw.Name, raw.FullName, raw.StudentName)
		*s = ref
		return nil
	default:
		id, err := strconv.ParseInt(string(trimmed), 10, 64)
		if err != nil {
			return err
		}
		*s = StudentRef{ID: id}
		return nil
	}
}

func stringify(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
