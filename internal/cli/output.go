package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

var errNoToken = errors.New("no access token: run 'storefrontctl login' or pass --token")

func printError(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintf(w, "✗ "+format+"\n", args...)
}

func printSuccess(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintf(w, "✓ "+format+"\n", args...)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
