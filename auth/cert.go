package auth

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// loadCertificates reads every *.cert file in dir and returns the set of
// public keys found, along with the number of certificate files present.
// The count is what Authenticator.Reconcile compares across calls to decide
// whether to replace its key set; the files are parsed on every call.
//
// Certificate files use the simple "key = value" ZPL format CZMQ's
// zcert_save produces, e.g.:
//
//	metadata
//	    name = alice
//	curve
//	    public-key = "<z85 text>"
//	    secret-key = "<z85 text>"
func loadCertificates(dir string) (map[string]bool, int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]bool{}, 0, nil
		}
		return nil, 0, err
	}

	keys := make(map[string]bool)
	count := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".cert") {
			continue
		}
		count++

		key, err := readPublicKey(filepath.Join(dir, entry.Name()))
		if err != nil {
			continue
		}
		if key != "" {
			keys[key] = true
		}
	}
	return keys, count, nil
}

func readPublicKey(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "public-key") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		value := strings.TrimSpace(parts[1])
		value = strings.Trim(value, `"`)
		return value, nil
	}
	return "", scanner.Err()
}
