package logging

import "go.uber.org/zap"

// New builds the service logger. Release mode uses the JSON production
// config; anything else gets the development console encoder.
func New(mode string) (*zap.Logger, error) {
	if mode == "release" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
