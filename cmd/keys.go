package cmd

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/gorilla/securecookie"
	"github.com/spf13/cobra"
)

type cookieKey struct {
	env  string
	file string
	size int
}

// Both keys are 32 bytes: HMAC-SHA256 for the hash key, AES-256 for the
// block key.
var cookieKeys = []cookieKey{
	{env: "COOKIE_HASH_KEY", file: "cookie_hash_key", size: 32},
	{env: "COOKIE_BLOCK_KEY", file: "cookie_block_key", size: 32},
}

func newKeysCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Generate the admin session cookie keys",
		Long: "Prints COOKIE_HASH_KEY and COOKIE_BLOCK_KEY as base64 shell exports.\n" +
			"With --dir each key is written to its own file and the export points at the file.",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, k := range cookieKeys {
				raw := securecookie.GenerateRandomKey(k.size)
				if raw == nil {
					return errors.New("could not read from the system random source")
				}
				val := base64.StdEncoding.EncodeToString(raw)
				if dir != "" {
					path := filepath.Join(dir, k.file)
					if err := os.WriteFile(path, []byte(val+"\n"), 0o600); err != nil {
						return errors.Wrapf(err, "write %s", path)
					}
					val = path
				}
				fmt.Fprintf(out, "export %s=%s\n", k.env, val)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "write the keys to files in this directory")
	return cmd
}
