package core

import (
	"testing"
	"workcore/testutil"
)

func TestCoreStaysTransportAgnostic(t *testing.T) {
	testutil.AssertImports(t, ".", testutil.Prefixed(
		"workcore/internal/httpapi",
		"github.com/gin-gonic/gin",
		"github.com/spf13/cobra",
		"github.com/redis/go-redis/v9",
	), "core is driven through interfaces; transports and brokers plug in from outside")
}
