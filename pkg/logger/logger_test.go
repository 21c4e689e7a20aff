package logger

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/smartystreets/goconvey/convey"
)

func TestLoggerInit(t *testing.T) {
	convey.Convey("Given the global logger", t, func() {
		convey.Convey("When initialized with defaults", func() {
			convey.So(Init(), convey.ShouldBeNil)
			convey.So(Get(), convey.ShouldNotBeNil)
			convey.So(Sync(), convey.ShouldBeNil)
		})

		convey.Convey("When initialized with an unknown format", func() {
			err := InitWithOptions(Options{Format: "xml"})
			convey.So(err, convey.ShouldNotBeNil)
		})

		convey.Convey("When initialized with a rotating file", func() {
			path := filepath.Join(t.TempDir(), "logs", "songleague.log")
			convey.So(InitWithOptions(Options{Format: "json", File: path}), convey.ShouldBeNil)

			Named("test").Info(context.Background(), "hello", String("k", "v"), Int("n", 1))
			convey.So(Sync(), convey.ShouldBeNil)

			data, err := os.ReadFile(path)
			convey.So(err, convey.ShouldBeNil)
			convey.So(string(data), convey.ShouldContainSubstring, `"msg":"hello"`)
			convey.So(string(data), convey.ShouldContainSubstring, `"component":"test"`)
			convey.So(string(data), convey.ShouldContainSubstring, "logger_test.go")
		})
	})
}

func TestSetLevelString(t *testing.T) {
	convey.Convey("Given level strings", t, func() {
		for _, lvl := range []string{"debug", "info", "", "WARN", "warning", "error"} {
			convey.So(SetLevelString(lvl), convey.ShouldBeNil)
		}
		convey.So(SetLevelString("loud"), convey.ShouldNotBeNil)
		convey.So(SetLevelString("info"), convey.ShouldBeNil)
	})
}

func TestNop(t *testing.T) {
	l := Nop()
	l.Error(context.Background(), "discarded", Error(os.ErrNotExist))
	if l.Named("x") == nil {
		t.Fatal("named nop logger is nil")
	}
}
