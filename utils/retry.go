package utils

import (
	"context"
	"errors"
	"runtime"
	"time"

	log "github.com/sirupsen/logrus"
)

const RETRY_LIMIT int = 5
const RETRY_INTERVAL int = 10

// RetryInterval is the pause between attempts.
var RetryInterval = time.Duration(RETRY_INTERVAL) * time.Second

// Retry runs attempt until it succeeds, returns exempt, or RETRY_LIMIT is
// reached. Only idempotent work belongs here; fault injection never does.
func Retry(ctx context.Context, attempt func() error, exempt error) error {
	var err error
	for i := 0; i < RETRY_LIMIT; i++ {
		err = attempt()
		if err == nil {
			return nil
		}
		if exempt != nil && errors.Is(err, exempt) {
			return err
		}
		pc, file, line, ok := runtime.Caller(1)
		if ok {
			log.Errorf("%s Called from %s, line #%d, func: %v", err,
				file, line, runtime.FuncForPC(pc).Name())
		}
		if i == RETRY_LIMIT-1 {
			break
		}
		select {
		case <-ctx.Done():
			return err
		case <-time.After(RetryInterval):
		}
	}
	return err
}
