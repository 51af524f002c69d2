package config

import (
	"os"
	"strconv"
	"strings"
)

// EnvPrefix 是所有环境变量的前缀。
const EnvPrefix = "SILICATE_"

// Lookup returns the value of the environment variable `key` if set.
// If not set, and `key + "_FILE"` is set, the file at that path is read and
// its trimmed contents are returned. The boolean reports whether either was set.
func Lookup(key string) (string, bool) {
	if val := os.Getenv(key); val != "" {
		return val, true
	}
	if path := os.Getenv(key + "_FILE"); path != "" {
		if data, err := os.ReadFile(path); err == nil {
			return strings.TrimSpace(string(data)), true
		}
	}
	return "", false
}

// parseBool 接受 1/t/true/y/yes 与 0/f/false/n/no，不区分大小写。
func parseBool(val string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(val)) {
	case "1", "t", "true", "y", "yes":
		return true, true
	case "0", "f", "false", "n", "no":
		return false, true
	}
	return false, false
}

func lookupString(key string) *string {
	if val, ok := Lookup(key); ok {
		return &val
	}
	return nil
}

func lookupInt(key string) (*int, error) {
	val, ok := Lookup(key)
	if !ok {
		return nil, nil
	}
	i, err := strconv.Atoi(strings.TrimSpace(val))
	if err != nil {
		return nil, &EnvError{Key: key, Value: val, Err: err}
	}
	return &i, nil
}

func lookupFloat(key string) (*float64, error) {
	val, ok := Lookup(key)
	if !ok {
		return nil, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
	if err != nil {
		return nil, &EnvError{Key: key, Value: val, Err: err}
	}
	return &f, nil
}

func lookupBool(key string) (*bool, error) {
	val, ok := Lookup(key)
	if !ok {
		return nil, nil
	}
	b, ok := parseBool(val)
	if !ok {
		return nil, &EnvError{Key: key, Value: val, Err: strconv.ErrSyntax}
	}
	return &b, nil
}

// EnvError 表示环境变量的值无法解析。
type EnvError struct {
	Key   string
	Value string
	Err   error
}

func (e *EnvError) Error() string {
	return "环境变量 " + e.Key + "=" + strconv.Quote(e.Value) + " 无效: " + e.Err.Error()
}

func (e *EnvError) Unwrap() error { return e.Err }
