package assets

import (
	"bufio"
	"embed"
	"strings"
)

//go:embed default_roster.json default_words.txt
var FS embed.FS

// DefaultRosterJSON returns the embedded fallback roster document.
func DefaultRosterJSON() ([]byte, error) {
	return FS.ReadFile("default_roster.json")
}

func readLines(name string) ([]string, error) {
	f, err := FS.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		out = append(out, strings.ToUpper(s))
	}
	return out, sc.Err()
}

// DefaultWordsList returns the embedded fallback word list, uppercased.
func DefaultWordsList() ([]string, error) {
	return readLines("default_words.txt")
}
