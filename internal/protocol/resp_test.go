package protocol

import (
	"bufio"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestParseCommand(t *testing.T) {
	Convey("Given a RESP array command", t, func() {
		raw := "*3\r\n$5\r\nSLADD\r\n$1\r\nk\r\n$1\r\n1\r\n"
		reader := bufio.NewReader(strings.NewReader(raw))
		cmd, err := ParseCommand(reader)
		So(err, ShouldBeNil)
		So(cmd.Args, ShouldResemble, []string{"SLADD", "k", "1"})
	})

	Convey("Given an inline command", t, func() {
		reader := bufio.NewReader(strings.NewReader("SLCARD k\n"))
		cmd, err := ParseCommand(reader)
		So(err, ShouldBeNil)
		So(cmd.Args, ShouldResemble, []string{"SLCARD", "k"})
	})
}

func TestEncodeHelpers(t *testing.T) {
	Convey("EncodeInteger encodes a RESP integer reply", t, func() {
		So(string(EncodeInteger(3)), ShouldEqual, ":3\r\n")
	})

	Convey("EncodeBulkString encodes a RESP bulk string", t, func() {
		So(string(EncodeBulkString("ab")), ShouldEqual, "$2\r\nab\r\n")
	})

	Convey("EncodeDouble sends a bulk string, not a bare integer reply", t, func() {
		encoded := string(EncodeDouble(3))
		So(encoded, ShouldStartWith, "$")
		So(encoded, ShouldContainSubstring, "3")
	})

	Convey("EncodeWrongType wraps err's message as an error reply", t, func() {
		encoded := string(EncodeWrongType(errTest{}))
		So(encoded, ShouldStartWith, "-")
		So(encoded, ShouldContainSubstring, "boom")
	})
}

type errTest struct{}

func (errTest) Error() string { return "boom" }

func TestDeferredMultiBulk(t *testing.T) {
	Convey("Given a deferred multi-bulk reply with no elements", t, func() {
		d := NewDeferredMultiBulk()
		So(string(d.Finalize()), ShouldEqual, "*0\r\n")
	})

	Convey("Given a deferred multi-bulk reply with several elements", t, func() {
		d := NewDeferredMultiBulk()
		d.AppendBulkString([]byte("1"))
		d.AppendBulkString([]byte("a"))
		d.AppendBulkString([]byte("2"))
		d.AppendBulkString([]byte("b"))

		Convey("Finalize prepends the correct element count", func() {
			So(string(d.Finalize()), ShouldEqual, "*4\r\n$1\r\n1\r\n$1\r\na\r\n$1\r\n2\r\n$1\r\nb\r\n")
		})
	})
}
