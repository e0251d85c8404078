package ioserver

import (
	"fmt"

	"github.com/Subaru-PFS/qadb/pkg/errcode"
	"github.com/gnames/gn"
)

// ServeError is returned when the HTTP server stops with an error.
func ServeError(addr string, err error) error {
	msg := `HTTP server on <em>%s</em> failed

<em>How to fix:</em>
  Check that the address is free or change server.address`
	vars := []any{addr}
	return &gn.Error{
		Code: errcode.ServerError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("server %s: %w", addr, err),
	}
}
