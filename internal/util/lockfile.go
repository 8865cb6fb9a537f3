package util

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

var ErrLocked = errors.New("cache is locked by another process")

// LockInfo is written into the lock file so a stuck lock can be traced
// to its owner.
type LockInfo struct {
	ID        string `yaml:"id"`
	User      string `yaml:"user"`
	Pid       int    `yaml:"pid"`
	TimeStamp string `yaml:"timestamp"`
}

type Lock struct {
	path string
}

// CreateLockFile takes an exclusive lock at lockFileName. A lock older
// than staleAfter is assumed abandoned and replaced.
func CreateLockFile(lockFileName string, staleAfter time.Duration) (*Lock, error) {
	t := time.Now().UTC()
	user := os.Getenv("USER")
	if user == "" {
		user = os.Getenv("USERNAME")
	}
	if user == "" {
		user = "unknown"
	}

	info, err := yaml.Marshal(&LockInfo{
		ID:        t.Format("20060102150405"),
		User:      user,
		Pid:       os.Getpid(),
		TimeStamp: t.Format(time.RFC3339),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal YAML: %w", err)
	}

	for attempt := 0; attempt < 2; attempt++ {
		f, err := os.OpenFile(lockFileName, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if err == nil {
			_, werr := f.Write(info)
			cerr := f.Close()
			if werr != nil || cerr != nil {
				os.Remove(lockFileName)
				return nil, fmt.Errorf("failed to write lock file: %w", errors.Join(werr, cerr))
			}
			return &Lock{path: lockFileName}, nil
		}
		if !os.IsExist(err) {
			return nil, fmt.Errorf("failed to create lock file: %w", err)
		}

		st, statErr := os.Stat(lockFileName)
		if statErr != nil || time.Since(st.ModTime()) < staleAfter {
			owner, _ := ReadLockFile(lockFileName)
			return nil, fmt.Errorf("%w (%s, pid %d)", ErrLocked, owner.User, owner.Pid)
		}
		slog.Warn("removing stale lock file", "path", lockFileName, "age", time.Since(st.ModTime()))
		os.Remove(lockFileName)
	}
	return nil, ErrLocked
}

func ReadLockFile(lockFileName string) (LockInfo, error) {
	var info LockInfo
	data, err := os.ReadFile(lockFileName)
	if err != nil {
		return info, err
	}
	err = yaml.Unmarshal(data, &info)
	return info, err
}

func (l *Lock) Release() {
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to remove lock file", "path", l.path, "error", err)
	}
}
