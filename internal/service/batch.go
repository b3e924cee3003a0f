package service

import (
	"fmt"
	"sync"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/multierr"

	appErrors "github.com/noah-isme/sma-result-desk/pkg/errors"
)

// runBatch calls fn for every index below n with at most limit calls in
// flight and waits for all of them. It reports which indexes failed and the
// combined error.
func runBatch(limit, n int, fn func(i int) error) (map[int]bool, error) {
	var (
		mu     sync.Mutex
		errs   error
		failed = make(map[int]bool)
	)
	p := pool.New().WithMaxGoroutines(limit)
	for i := 0; i < n; i++ {
		i := i
		p.Go(func() {
			if err := fn(i); err != nil {
				mu.Lock()
				errs = multierr.Append(errs, err)
				failed[i] = true
				mu.Unlock()
			}
		})
	}
	p.Wait()
	return failed, errs
}

// batchError reports a fan-out outcome as a single error. When every update
// failed the first failure is surfaced like any remote rejection.
func batchError(errs error, total, failed int, fallback string) error {
	if failed == 0 {
		return nil
	}
	all := multierr.Errors(errs)
	if failed == total && len(all) > 0 {
		return remoteError(all[0], fallback)
	}
	wrapped := appErrors.Wrap(errs, appErrors.ErrPartialBatch.Code, appErrors.ErrPartialBatch.Status,
		fmt.Sprintf("%s %d of %d updates failed; the rest were saved.", fallback, failed, total))
	wrapped.Details = map[string]int{"failed": failed, "total": total}
	return wrapped
}
