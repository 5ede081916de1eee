package convert

import (
	"strings"
	"unicode"
)

// CountWords counts whitespace-separated words in plain text.
func CountWords(text string) int {
	return len(strings.FieldsFunc(text, unicode.IsSpace))
}

// CountMarkdownWords counts the prose words of a markdown document, skipping
// code blocks and formatting markers.
func CountMarkdownWords(markdown string) int {
	return CountWords(cleanMarkdown(markdown))
}

func cleanMarkdown(markdown string) string {
	text := removeCodeBlocks(markdown)

	replacer := strings.NewReplacer(
		"`", "",
		"**", "",
		"*", "",
		"__", "",
		"_", "",
		"~~", "",
		"#", "",
		">", "",
		"---", "",
	)
	text = replacer.Replace(text)

	// Strip list markers line by line
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "- ")
		if len(line) > 2 && unicode.IsDigit(rune(line[0])) && line[1] == '.' {
			line = line[2:]
		}
		lines[i] = line
	}

	return strings.Join(lines, " ")
}

func removeCodeBlocks(text string) string {
	for {
		start := strings.Index(text, "```")
		if start == -1 {
			break
		}
		end := strings.Index(text[start+3:], "```")
		if end == -1 {
			break
		}
		text = text[:start] + text[start+end+6:]
	}
	return text
}
