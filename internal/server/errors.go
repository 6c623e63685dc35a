package server

import (
	"dice-io-server/pkg/api"
	"fmt"
)

func errUnknownEvent(name string) error {
	return fmt.Errorf("%w: unknown event %q", api.ErrInvalidPayload, name)
}
