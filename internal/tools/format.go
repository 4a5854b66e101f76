package tools

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"
)

// relativePath renders path relative to root for terminal-friendly output,
// falling back to the absolute path if it isn't under root.
func relativePath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}

// uriToPath converts a textDocument URI to a filesystem path.
func uriToPath(u protocol.DocumentURI) string {
	return uri.New(string(u)).Filename()
}

// formatLocation renders a 1-based "path:line:col" location string.
func formatLocation(root string, u protocol.DocumentURI, pos protocol.Position) string {
	return fmt.Sprintf("%s:%d:%d", relativePath(root, uriToPath(u)), pos.Line+1, pos.Character+1)
}

// readLine returns the 0-based line'th line of filePath's content.
func readLine(filePath string, line uint32) (string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var i uint32
	for scanner.Scan() {
		if i == line {
			return scanner.Text(), nil
		}
		i++
	}
	return "", fmt.Errorf("line %d not found in %s", line+1, filePath)
}

// resolveCharacterOnLine finds the first occurrence of target on line and
// returns its 0-based column, for tools whose args give a target name or
// snippet instead of an exact column.
func resolveCharacterOnLine(filePath string, line uint32, target string) (uint32, error) {
	text, err := readLine(filePath, line)
	if err != nil {
		return 0, err
	}
	idx := strings.Index(text, target)
	if idx < 0 {
		return 0, fmt.Errorf("%q not found on line %d of %s", target, line+1, filePath)
	}
	return uint32(len([]rune(text[:idx]))), nil
}

// contextPreview renders filePath's content around a 0-based line with
// radius lines of surrounding context, each prefixed with its 1-based
// line number and the target line marked with ">>" (radius is usually 1,
// but parameterized for find_references' surrounding context).
func contextPreview(filePath string, line uint32, radius int) (string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}

	start := int(line) - radius
	if start < 0 {
		start = 0
	}
	end := int(line) + radius
	if end >= len(lines) {
		end = len(lines) - 1
	}

	var b strings.Builder
	for i := start; i <= end; i++ {
		marker := "  "
		if i == int(line) {
			marker = ">>"
		}
		fmt.Fprintf(&b, "%s %4d: %s\n", marker, i+1, lines[i])
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

// highlightParameter marks the active parameter of a signature label for
// get_signature_help's text output.
func highlightParameter(label string, params []string, active int) string {
	if active < 0 || active >= len(params) {
		return label
	}
	target := params[active]
	idx := strings.Index(label, target)
	if idx < 0 {
		return label
	}
	return label[:idx] + "[" + target + "]" + label[idx+len(target):]
}
