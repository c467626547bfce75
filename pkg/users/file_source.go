package users

import (
	"bufio"
	"encoding/json"
	"fmt"

	"github.com/spf13/afero"

	"github.com/crastinus/hlfun-auth-srv/pkg/logging"
)

// fileRecord is the on-disk shape of one user line. Unlike User it
// deserializes the password, and is_admin defaults to false when absent.
type fileRecord struct {
	Login    string `json:"login"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Country  string `json:"country"`
	IsAdmin  bool   `json:"is_admin"`
}

// FileSource implements Source over a newline-delimited JSON file
type FileSource struct {
	fs   afero.Fs
	path string
}

// NewFileSource creates a FileSource reading from the given filesystem
func NewFileSource(fs afero.Fs, path string) *FileSource {
	return &FileSource{fs: fs, path: path}
}

// LoadUsers implements Source. Each non-empty line must be a complete
// JSON user record; a malformed line aborts the load so a truncated data
// file is caught at startup rather than surfacing as missing accounts.
func (s *FileSource) LoadUsers() ([]User, error) {
	f, err := s.fs.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("opening users file: %w", err)
	}
	defer f.Close()

	var result []User

	scanner := bufio.NewScanner(f)
	// Individual records are small, but allow for long phone/name fields.
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var rec fileRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("parsing users file line %d: %w", lineNo, err)
		}
		if rec.Login == "" {
			return nil, fmt.Errorf("parsing users file line %d: empty login", lineNo)
		}

		result = append(result, User{
			Login:    rec.Login,
			Password: rec.Password,
			Name:     rec.Name,
			Phone:    rec.Phone,
			Country:  rec.Country,
			IsAdmin:  rec.IsAdmin,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading users file: %w", err)
	}

	logging.App.Info("Loaded users file", "path", s.path, "users", len(result))
	return result, nil
}
