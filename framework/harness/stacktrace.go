package harness

import (
	"reflect"

	"github.com/launchdarkly/tap-test-harness/framework/tapzero"
)

type packageMarker struct{}

var ownPackage = reflect.TypeOf(packageMarker{}).PkgPath() //nolint:gochecknoglobals

// InternalFrame extends tapzero.DefaultInternalFrame to also skip this package and the
// sync package, so a bootstrap or close failure is located at the code that ran the
// tests rather than inside the Suite. Pass it to tapzero.WithInternalFrame.
func InternalFrame(f tapzero.Frame) bool {
	return tapzero.DefaultInternalFrame(f) || f.Package == ownPackage || f.Package == "sync"
}
