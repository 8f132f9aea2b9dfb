package domain_test

import (
	"testing"
	"workcore/testutil"
)

// The domain layer stays free of internal packages and third-party
// dependencies so every adapter can import it.
func TestDomainImportsStayPure(t *testing.T) {
	testutil.AssertImports(t, ".", testutil.AnyOf(testutil.InternalPackage, testutil.ThirdParty), "pkg/domain must stay dependency free")
}
