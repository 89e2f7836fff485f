package types

import (
	"errors"
	"fmt"
)

var (
	ErrExtensionNotInstalled  = errors.New("signing agent is not installed")
	ErrUnsupportedWallet      = errors.New("unsupported wallet")
	ErrUnsupportedMessageType = errors.New("unsupported message type")
	ErrAccountNotFound        = errors.New("account not found")
	ErrMalformedChainID       = errors.New("malformed chain id")
	ErrServerRejectedTx       = errors.New("transaction rejected by server")
	ErrNetwork                = errors.New("network error")
	ErrWatchOnlyWallet        = errors.New("watch-only wallet cannot sign")
)

// ServerRejectedTxError is returned when a gateway response carries a nonzero code,
// either at the top level or inside tx_response.
// RawCode holds the code as sent when it is not a valid uint32; Code is then 0.
type ServerRejectedTxError struct {
	Code    uint32
	RawCode string
	Message string
}

func (e *ServerRejectedTxError) Error() string {
	if e.RawCode != "" {
		return fmt.Sprintf("%s (code %s): %s", ErrServerRejectedTx.Error(), e.RawCode, e.Message)
	}
	return fmt.Sprintf("%s (code %d): %s", ErrServerRejectedTx.Error(), e.Code, e.Message)
}

func (e *ServerRejectedTxError) Unwrap() error {
	return ErrServerRejectedTx
}

// NetworkError wraps a transport failure talking to a gateway or an agent.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrNetwork.Error(), e.Op, e.Err)
}

// Is lets errors.Is match both ErrNetwork and the wrapped cause.
func (e *NetworkError) Is(target error) bool {
	return target == ErrNetwork
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}
