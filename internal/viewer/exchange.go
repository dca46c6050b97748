package viewer

import (
	"os"
	"path/filepath"
)

// The exchange file is the only channel back to the calling process: the
// viewer writes the action payload, exits with the matching status, and the
// caller reads and deletes the file.

func openURLPath(session string) string {
	return filepath.Join(os.TempDir(), "notefeed_open_url_"+session)
}

func notePathFile(session string) string {
	return filepath.Join(os.TempDir(), "notefeed_note_path_"+session)
}

func writeExchange(path, payload string) error {
	return os.WriteFile(path, []byte(payload), 0o600)
}
