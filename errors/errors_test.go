package errors_test

import (
	goerrors "errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/wirepack/wirepack/errors"
)

func TestErrorFormat(t *testing.T) {
	tests := []struct {
		name string
		err  *errors.Error
		want []string
	}{
		{
			name: "invalid tag",
			err:  errors.InvalidTag(12, 0xEE),
			want: []string{"[decode]", "invalid_tag", "offset 12", "0xee"},
		},
		{
			name: "unknown type",
			err:  errors.UnknownType(errors.PhaseDecode, "geo.Point"),
			want: []string{"[decode]", "unknown_type", "geo.Point"},
		},
		{
			name: "truncated with cause",
			err:  errors.Truncated(3, "packed integer", io.ErrUnexpectedEOF),
			want: []string{"truncated", "offset 3", "packed integer", "unexpected EOF"},
		},
		{
			name: "builder",
			err: errors.New(errors.PhaseEncode, errors.KindUnsupportedType).
				TypeName("chan int").
				Detail("no encoding for channels").
				Build(),
			want: []string{"[encode]", "unsupported_type", "chan int", "channels"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, part := range tt.want {
				if !strings.Contains(msg, part) {
					t.Errorf("message %q missing %q", msg, part)
				}
			}
		})
	}
}

func TestErrorIs(t *testing.T) {
	err := errors.Truncated(5, "string payload", io.ErrUnexpectedEOF)

	if !goerrors.Is(err, io.ErrUnexpectedEOF) {
		t.Error("truncated error should wrap its cause")
	}
	if !goerrors.Is(err, &errors.Error{Phase: errors.PhaseDecode, Kind: errors.KindTruncated}) {
		t.Error("Is should match on phase and kind")
	}
	if goerrors.Is(err, &errors.Error{Phase: errors.PhaseEncode, Kind: errors.KindTruncated}) {
		t.Error("Is should not match a different phase")
	}
}

func TestCorruptionClassification(t *testing.T) {
	corrupt := []*errors.Error{
		errors.InvalidTag(0, 0xFF),
		errors.Truncated(1, "tag", io.EOF),
		errors.Overflow(2, nil),
		errors.BadBackref(3, 9, 2),
		errors.InvalidData(4, "map key is not comparable"),
	}
	for _, err := range corrupt {
		if !errors.IsCorruption(err) {
			t.Errorf("%v should classify as corruption", err.Kind)
		}
		if errors.IsUnknownType(err) {
			t.Errorf("%v should not classify as unknown type", err.Kind)
		}
	}

	unknown := errors.UnknownType(errors.PhaseDecode, "x.T")
	if errors.IsCorruption(unknown) {
		t.Error("unknown_type must be distinguishable from corruption")
	}
	if !errors.IsUnknownType(unknown) {
		t.Error("IsUnknownType should match unknown_type")
	}
}

func TestClassificationSeesThroughWrapping(t *testing.T) {
	corrupt := fmt.Errorf("reading snapshot: %w", errors.InvalidTag(7, 0x3F))
	if !errors.IsCorruption(corrupt) {
		t.Error("wrapped corruption error lost its classification")
	}

	unknown := fmt.Errorf("loading graph: %w", errors.UnknownType(errors.PhaseDecode, "x.T"))
	if !errors.IsUnknownType(unknown) {
		t.Error("wrapped unknown-type error lost its classification")
	}
	if errors.IsCorruption(unknown) {
		t.Error("wrapped unknown_type misclassified as corruption")
	}

	if errors.IsCorruption(io.ErrUnexpectedEOF) {
		t.Error("a bare io error is not a classified corruption")
	}
}
