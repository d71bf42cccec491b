package acme

import (
	"errors"
)

var ErrNoAccount = errors.New("no account found in data store")

type DataStore interface {
	LoadAccount() (*Account, error)
	StoreAccount(*Account) error
}
