package store

import (
	"os"
	"testing"

	"github.com/govbuilder/engine/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.UseNop()
	os.Exit(m.Run())
}
