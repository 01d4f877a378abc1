package mocks

import (
	"io"

	"github.com/stretchr/testify/mock"
)

// MockAttachmentStorage implements storage.AttachmentStorage
type MockAttachmentStorage struct {
	mock.Mock
}

// Save stores content and returns a storage URL
func (m *MockAttachmentStorage) Save(filename string, content io.Reader) (string, int64, error) {
	args := m.Called(filename, content)
	return args.String(0), args.Get(1).(int64), args.Error(2)
}

// Get opens stored content by storage URL
func (m *MockAttachmentStorage) Get(storageURL string) (io.ReadCloser, error) {
	args := m.Called(storageURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadCloser), args.Error(1)
}

// Delete removes stored content by storage URL
func (m *MockAttachmentStorage) Delete(storageURL string) error {
	args := m.Called(storageURL)
	return args.Error(0)
}
