// pkg/buildstyle/cmake.go
package buildstyle

import (
	"context"

	"github.com/arc-language/cbuild/pkg/hook"
)

// CMake configures with cmake into MakeDir and builds with ninja
type CMake struct{}

func (CMake) Name() string { return "cmake" }

func (CMake) Configure(ctx context.Context, bc *hook.Context) error {
	args := []string{
		"-G", "Ninja",
		"-B", bc.MakeDir,
		"-DCMAKE_INSTALL_PREFIX=/usr",
		"-DCMAKE_INSTALL_LIBDIR=lib",
		"-DCMAKE_BUILD_TYPE=None",
	}
	if bc.Profile != nil {
		args = append(args, "-DCMAKE_SYSTEM_PROCESSOR="+string(bc.Profile.Arch))
	}
	args = append(args, bc.Template.ConfigureArgs...)
	return bc.Do(ctx, "cmake", args...)
}

func (CMake) Build(ctx context.Context, bc *hook.Context) error {
	args := []string{"--build", bc.MakeDir, "--parallel", jobs(bc)}
	args = append(args, bc.Template.MakeBuildArgs...)
	return bc.Do(ctx, "cmake", args...)
}

func (CMake) Check(ctx context.Context, bc *hook.Context) error {
	return bc.Do(ctx, "ctest", "--test-dir", bc.MakeDir, "--output-on-failure", "-j", jobs(bc))
}

// Install relies on DESTDIR from the build environment
func (CMake) Install(ctx context.Context, bc *hook.Context) error {
	return bc.Do(ctx, "cmake", "--install", bc.MakeDir)
}
