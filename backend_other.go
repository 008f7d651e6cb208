//go:build !windows
// +build !windows

package winlog

import "go.uber.org/zap"

func NewEventLogSource(logger *zap.Logger) (Source, error) {
	return nil, ErrUnsupportedPlatform
}

func NewWMISource(logger *zap.Logger) (Source, error) {
	return nil, ErrUnsupportedPlatform
}
