package extension

import (
	"bufio"
	"bytes"
	"fmt"
	"io/fs"
	"strings"
)

// Entry is one declared implementation for a contract, in discovery order.
type Entry struct {
	Contract       ContractKey
	Implementation string
	Location       string
}

// parseDeclarations reads a declaration resource. Each line has the form
//
//	contractKey=implA,implB,implC
//
// Blank lines and lines starting with # are ignored.
func parseDeclarations(fsys fs.FS, path string) ([]Entry, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, &DiscoveryError{
			Reason: fmt.Sprintf("unreadable declaration resource %s", path),
			Err:    err,
		}
	}

	var entries []Entry
	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, list, found := strings.Cut(line, "=")
		key = strings.TrimSpace(key)
		if !found || key == "" {
			return nil, &DiscoveryError{
				Reason: fmt.Sprintf("malformed declaration at %s:%d", path, lineNo),
			}
		}
		for _, impl := range strings.Split(list, ",") {
			impl = strings.TrimSpace(impl)
			if impl == "" {
				continue
			}
			entries = append(entries, Entry{
				Contract:       ContractKey(key),
				Implementation: impl,
				Location:       path,
			})
		}
	}
	return entries, nil
}
