package command

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/travissluka/hutt/internal/markdown"
	hutterr "github.com/travissluka/hutt/pkg/core/error"
)

// CheckArgs rejects argument names outside allowed.
func CheckArgs(args markdown.Args, allowed ...string) error {
	var unknown []string
	for _, k := range args.Keys() {
		if !contains(allowed, k) {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		return hutterr.Newf("unknown argument(s): %s", strings.Join(unknown, ", ")).
			WithCode(hutterr.CodeInvalidArgument).
			WithDetail("allowed", strings.Join(allowed, ","))
	}
	return nil
}

// RequireArg returns the named argument or an error when it is missing or
// empty.
func RequireArg(args markdown.Args, key string) (string, error) {
	v, ok := args[key]
	if !ok || v == "" {
		return "", hutterr.Newf("missing required argument %q", key).
			WithCode(hutterr.CodeInvalidArgument)
	}
	return v, nil
}

// IntArg parses an optional integer argument. ok is false when absent.
func IntArg(args markdown.Args, key string) (value int, ok bool, err error) {
	raw, present := args[key]
	if !present {
		return 0, false, nil
	}
	value, err = strconv.Atoi(raw)
	if err != nil {
		return 0, false, hutterr.Wrap(err, fmt.Sprintf("argument %q must be an integer", key)).
			WithCode(hutterr.CodeInvalidArgument)
	}
	return value, true, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
