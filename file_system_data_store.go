package acme

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
)

type FileSystemDataStore struct {
	rootPath    string
	accountPath string
}

func NewFileSystemDataStore(rootPath string) (*FileSystemDataStore, error) {
	if err := os.MkdirAll(rootPath, 0700); err != nil {
		return nil, fmt.Errorf("cannot create directory %q: %w", rootPath, err)
	}

	s := FileSystemDataStore{
		rootPath:    rootPath,
		accountPath: path.Join(rootPath, "account.json"),
	}

	return &s, nil
}

func (s *FileSystemDataStore) LoadAccount() (*Account, error) {
	data, err := os.ReadFile(s.accountPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNoAccount
		}

		return nil, fmt.Errorf("cannot read %q: %w", s.accountPath, err)
	}

	var account Account
	if err := json.Unmarshal(data, &account); err != nil {
		return nil, fmt.Errorf("cannot decode %q: %w", s.accountPath, err)
	}

	return &account, nil
}

func (s *FileSystemDataStore) StoreAccount(account *Account) error {
	data, err := json.Marshal(account)
	if err != nil {
		return fmt.Errorf("cannot encode account: %w", err)
	}

	return s.storeFile(s.accountPath, data)
}

func (s *FileSystemDataStore) storeFile(filePath string, data []byte) error {
	tmpPath := filePath + ".tmp"

	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("cannot write %q: %w", tmpPath, err)
	}

	if err := os.Rename(tmpPath, filePath); err != nil {
		return fmt.Errorf("cannot rename %q to %q: %w", tmpPath, filePath, err)
	}

	return nil
}
