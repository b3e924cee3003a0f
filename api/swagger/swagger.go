package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Result Desk API",
        "description": "Role-based result management desk for the university result service.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {
            "name": "Session",
            "description": "Sign-in and the desk's single session"
        },
        {
            "name": "Courses",
            "description": "Course list with draft-status badges"
        },
        {
            "name": "Results",
            "description": "Per-course result editor and lifecycle actions"
        },
        {
            "name": "Badges",
            "description": "Draft-status badge cache"
        },
        {
            "name": "CA Config",
            "description": "Continuous assessment slot maxima"
        },
        {
            "name": "Submitted Results",
            "description": "Reviewer dashboard"
        },
        {
            "name": "Notifications",
            "description": "Alerts from the result service"
        }
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/metrics": {
            "get": {
                "summary": "Prometheus metrics",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/session": {
            "post": {
                "tags": [
                    "Session"
                ],
                "summary": "Sign in",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/SignInRequest"
                        }
                    }
                ]
            },
            "get": {
                "tags": [
                    "Session"
                ],
                "summary": "Current session",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            },
            "delete": {
                "tags": [
                    "Session"
                ],
                "summary": "Sign out",
                "responses": {
                    "204": {
                        "description": "No Content"
                    }
                }
            }
        },
        "/courses": {
            "get": {
                "tags": [
                    "Courses"
                ],
                "summary": "List courses",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "cached",
                        "in": "query",
                        "type": "boolean"
                    }
                ]
            }
        },
        "/courses/{id}/workspace": {
            "post": {
                "tags": [
                    "Results"
                ],
                "summary": "Open a course's result",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "integer"
                    }
                ]
            },
            "get": {
                "tags": [
                    "Results"
                ],
                "summary": "Current editor state",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "integer"
                    }
                ]
            },
            "delete": {
                "tags": [
                    "Results"
                ],
                "summary": "Close the editor",
                "responses": {
                    "204": {
                        "description": "No Content"
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "integer"
                    }
                ]
            }
        },
        "/courses/{id}/workspace/scores/{student}": {
            "patch": {
                "tags": [
                    "Results"
                ],
                "summary": "Edit one student's marks",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "integer"
                    },
                    {
                        "name": "student",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/ScoreUpdateRequest"
                        }
                    }
                ]
            }
        },
        "/courses/{id}/workspace/export": {
            "get": {
                "tags": [
                    "Results"
                ],
                "summary": "Export the score sheet",
                "responses": {
                    "200": {
                        "description": "File"
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "integer"
                    },
                    {
                        "name": "format",
                        "in": "query",
                        "type": "string",
                        "enum": [
                            "csv",
                            "pdf"
                        ]
                    }
                ]
            }
        },
        "/courses/{id}/result": {
            "post": {
                "tags": [
                    "Results"
                ],
                "summary": "Create the course's result",
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "integer"
                    }
                ]
            }
        },
        "/courses/{id}/result/draft": {
            "post": {
                "tags": [
                    "Results"
                ],
                "summary": "Save the draft",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "integer"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": false,
                        "schema": {
                            "$ref": "#/definitions/DraftRequest"
                        }
                    }
                ]
            }
        },
        "/courses/{id}/result/actions/{action}": {
            "post": {
                "tags": [
                    "Results"
                ],
                "summary": "Perform a lifecycle action",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "integer"
                    },
                    {
                        "name": "action",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "enum": [
                            "submit",
                            "resubmit",
                            "approve",
                            "reject",
                            "process",
                            "set_correction"
                        ]
                    }
                ]
            }
        },
        "/courses/{id}/result/reconcile": {
            "post": {
                "tags": [
                    "Results"
                ],
                "summary": "Re-read the result status",
                "responses": {
                    "204": {
                        "description": "No Content"
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "integer"
                    }
                ]
            }
        },
        "/badges": {
            "get": {
                "tags": [
                    "Badges"
                ],
                "summary": "Draft-status badges",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            },
            "delete": {
                "tags": [
                    "Badges"
                ],
                "summary": "Clear every badge",
                "responses": {
                    "204": {
                        "description": "No Content"
                    }
                }
            }
        },
        "/badges/{id}": {
            "delete": {
                "tags": [
                    "Badges"
                ],
                "summary": "Clear one course's badge",
                "responses": {
                    "204": {
                        "description": "No Content"
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "integer"
                    }
                ]
            }
        },
        "/notifications": {
            "get": {
                "tags": [
                    "Notifications"
                ],
                "summary": "Notifications",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/notifications/{id}": {
            "delete": {
                "tags": [
                    "Notifications"
                ],
                "summary": "Dismiss a notification",
                "responses": {
                    "204": {
                        "description": "No Content"
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "integer"
                    }
                ]
            }
        },
        "/ca-config": {
            "get": {
                "tags": [
                    "CA Config"
                ],
                "summary": "CA configuration",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/ca-config/slots/{slot}": {
            "put": {
                "tags": [
                    "CA Config"
                ],
                "summary": "Change one slot maximum locally",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "slot",
                        "in": "path",
                        "required": true,
                        "type": "integer"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/CASlotRequest"
                        }
                    }
                ]
            }
        },
        "/ca-config/save": {
            "post": {
                "tags": [
                    "CA Config"
                ],
                "summary": "Save the CA configuration",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/ca-config/reset": {
            "post": {
                "tags": [
                    "CA Config"
                ],
                "summary": "Discard local edits and reload",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/ca-config/leave": {
            "post": {
                "tags": [
                    "CA Config"
                ],
                "summary": "Confirm leaving the editor",
                "responses": {
                    "204": {
                        "description": "No Content"
                    }
                },
                "parameters": [
                    {
                        "name": "force",
                        "in": "query",
                        "type": "boolean"
                    }
                ]
            }
        },
        "/submitted-results": {
            "get": {
                "tags": [
                    "Submitted Results"
                ],
                "summary": "List submitted results",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "include_drafts",
                        "in": "query",
                        "type": "boolean"
                    },
                    {
                        "name": "status",
                        "in": "query",
                        "type": "string"
                    }
                ]
            }
        },
        "/submitted-results/{id}": {
            "get": {
                "tags": [
                    "Submitted Results"
                ],
                "summary": "Submitted result detail",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "integer"
                    }
                ]
            }
        },
        "/submitted-results/{id}/review": {
            "post": {
                "tags": [
                    "Submitted Results"
                ],
                "summary": "Approve or reject a result",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "integer"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/ReviewRequest"
                        }
                    }
                ]
            }
        },
        "/submitted-results/{id}/correction": {
            "post": {
                "tags": [
                    "Submitted Results"
                ],
                "summary": "Reopen an approved result for correction",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "integer"
                    }
                ]
            }
        },
        "/submitted-results/{id}/scores": {
            "patch": {
                "tags": [
                    "Submitted Results"
                ],
                "summary": "Save corrected scores",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "integer"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/CorrectionsRequest"
                        }
                    }
                ]
            }
        },
        "/submitted-results/{id}/resubmit": {
            "post": {
                "tags": [
                    "Submitted Results"
                ],
                "summary": "Resubmit a corrected result",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "integer"
                    }
                ]
            }
        }
    },
    "definitions": {
        "SignInRequest": {
            "type": "object",
            "required": [
                "username",
                "password"
            ],
            "properties": {
                "username": {
                    "type": "string"
                },
                "password": {
                    "type": "string"
                }
            }
        },
        "ScoreUpdateRequest": {
            "type": "object",
            "properties": {
                "ca_slot1": {
                    "type": "number",
                    "x-nullable": true
                },
                "ca_slot2": {
                    "type": "number",
                    "x-nullable": true
                },
                "ca_slot3": {
                    "type": "number",
                    "x-nullable": true
                },
                "ca_slot4": {
                    "type": "number",
                    "x-nullable": true
                },
                "exam_mark": {
                    "type": "number",
                    "x-nullable": true
                }
            }
        },
        "DraftRequest": {
            "type": "object",
            "properties": {
                "reason": {
                    "type": "string"
                }
            }
        },
        "CASlotRequest": {
            "type": "object",
            "required": [
                "value"
            ],
            "properties": {
                "value": {
                    "type": "number",
                    "minimum": 0,
                    "maximum": 40
                }
            }
        },
        "ReviewRequest": {
            "type": "object",
            "required": [
                "decision"
            ],
            "properties": {
                "decision": {
                    "type": "string",
                    "enum": [
                        "approve",
                        "reject"
                    ]
                }
            }
        },
        "CorrectionRow": {
            "type": "object",
            "required": [
                "score_id"
            ],
            "properties": {
                "score_id": {
                    "type": "integer"
                },
                "ca_slot1": {
                    "type": "number",
                    "x-nullable": true
                },
                "ca_slot2": {
                    "type": "number",
                    "x-nullable": true
                },
                "ca_slot3": {
                    "type": "number",
                    "x-nullable": true
                },
                "ca_slot4": {
                    "type": "number",
                    "x-nullable": true
                },
                "exam_mark": {
                    "type": "number",
                    "x-nullable": true
                }
            }
        },
        "CorrectionsRequest": {
            "type": "object",
            "required": [
                "rows"
            ],
            "properties": {
                "reason": {
                    "type": "string"
                },
                "rows": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/CorrectionRow"
                    }
                }
            }
        },
        "Notice": {
            "type": "object",
            "properties": {
                "type": {
                    "type": "string",
                    "enum": [
                        "success",
                        "error"
                    ]
                },
                "text": {
                    "type": "string"
                }
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {
                    "type": "integer"
                },
                "page_size": {
                    "type": "integer"
                },
                "total_count": {
                    "type": "integer"
                }
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {
                    "type": "string"
                },
                "message": {
                    "type": "string"
                },
                "status": {
                    "type": "integer"
                },
                "details": {
                    "type": "object"
                }
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {
                    "type": "object"
                },
                "error": {
                    "$ref": "#/definitions/APIError"
                },
                "notice": {
                    "$ref": "#/definitions/Notice"
                },
                "pagination": {
                    "$ref": "#/definitions/Pagination"
                },
                "meta": {
                    "type": "object"
                }
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
