package ui

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	markdown "github.com/MichaelMure/go-term-markdown"
	tea "github.com/charmbracelet/bubbletea"
	gomarkdown "github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/parser"

	"mentis/config"
	appmodel "mentis/model"
)

// Pre-compiled regex patterns for better performance
var (
	inlineCodeRegex = regexp.MustCompile(`(?s)\x1b\[44;3m(.*?)\x1b\[0m`)
	mdLinkRegex     = regexp.MustCompile(`\[([^\]]+)\]\((https?://[^\)]+)\)`)
	urlRegex        = regexp.MustCompile(`(https?://[^\s]+)`)
)

func (a *AppView) updateViewportContent(gotoBottom bool) {
	if len(a.dataModel.Messages) == 0 && !a.dataModel.Loading && !a.dataModel.Streaming {
		a.viewport.SetContent("No messages yet. Start chatting!")
		return
	}

	var content strings.Builder
	for _, msg := range a.dataModel.Messages {
		content.WriteString(a.renderMessage(msg))
	}

	a.viewport.SetContent(content.String())
	if gotoBottom {
		a.viewport.GotoBottom()
	}
}

// updateStreamingMessage re-renders the viewport with the in-flight
// assistant bubble appended: status strip, then either the partial
// response with a cursor or the waiting placeholder.
func (a *AppView) updateStreamingMessage() {
	var content strings.Builder

	for _, msg := range a.dataModel.Messages {
		content.WriteString(a.renderMessage(msg))
	}

	timestamp := DimStyle.Render(time.Now().Format("[15:04]"))
	role := AssistantStyle.Render("Assistant")
	content.WriteString(fmt.Sprintf("%s %s\n", timestamp, role))

	// Status strip: done stages get a check, the active one pulses,
	// stages not yet reached stay dim.
	pulse := a.loadingSpinner.View()
	detail := statusDetail(a.dataModel.StatusMeta, a.dataModel.StatusCode)
	content.WriteString(renderStatusStrip(a.dataModel.CurrentStageIndex(), detail, pulse))
	content.WriteString("\n")

	partial := a.currentResp.String()
	if partial == "" {
		content.WriteString(DimStyle.Render(pulse + " Waiting for response..."))
		content.WriteString("\n\n")
	} else {
		blocks := appmodel.NormalizeStreaming(partial)
		body := renderBlocks(blocks, nil, blockRenderOpts{
			width:        a.width,
			showThoughts: a.showThoughts,
			streaming:    true,
			pulse:        pulse,
		})
		if a.cursorVisible {
			body += "▋"
		}
		content.WriteString(body)
		content.WriteString("\n\n")
	}

	a.viewport.SetContent(content.String())
	a.viewport.GotoBottom()
}

// renderMessage renders one finalized message including its trailing
// blank line.
func (a *AppView) renderMessage(msg Message) string {
	timestamp := DimStyle.Render(msg.Timestamp.Format("[15:04]"))

	switch msg.Role {
	case "user":
		content := msg.Content
		if len(msg.Attachments) > 0 {
			var names []string
			for _, att := range msg.Attachments {
				names = append(names, att.Name)
			}
			content += "\n" + DimStyle.Render("📎 "+strings.Join(names, ", "))
		}
		return formatUserMessage(timestamp, UserStyle.Render("You"), content)

	case "assistant":
		blocks := appmodel.NormalizeContent(msg.Content)
		var renderedParts []string
		if msg.Rendered != "" {
			renderedParts = strings.Split(msg.Rendered, textBlockSep)
		}
		body := renderBlocks(blocks, renderedParts, blockRenderOpts{
			width:        a.width,
			showThoughts: a.showThoughts,
			pulse:        a.loadingSpinner.View(),
		})
		return fmt.Sprintf("%s %s\n%s\n\n", timestamp, AssistantStyle.Render("Assistant"), body)

	default:
		return fmt.Sprintf("%s %s\n%s\n\n", timestamp, DimStyle.Render("System"), msg.Content)
	}
}

func formatUserMessage(timestamp, role, content string) string {
	greenBold := "\x1b[32;1m"
	reset := "\x1b[0m"
	bar := greenBold + "┃" + reset

	lines := strings.Split(content, "\n")

	var result strings.Builder
	result.WriteString(fmt.Sprintf("%s %s %s\n", bar, timestamp, role))
	for _, line := range lines {
		result.WriteString(fmt.Sprintf("%s %s\n", bar, line))
	}
	result.WriteString("\n")

	return result.String()
}

// renderMarkdownAsync renders the text blocks of a message to terminal
// markdown off the update loop. Thought and tool blocks are skipped;
// each text block renders separately so the block renderer can
// interleave panels and cards between them.
func (a AppView) renderMarkdownAsync(messageIndex int, content string) tea.Cmd {
	width := a.width
	return func() tea.Msg {
		startTime := time.Now()

		blocks := appmodel.NormalizeContent(content)
		var parts []string
		for _, block := range blocks {
			if block.Type != appmodel.BlockText {
				continue
			}
			parts = append(parts, renderMarkdownText(block.Content, width))
		}

		if config.DebugLog != nil {
			config.DebugLog.Printf("Markdown rendered for message %d (%d text blocks) in %v",
				messageIndex, len(parts), time.Since(startTime))
		}

		return markdownRenderedMsg{
			MessageIndex: messageIndex,
			Rendered:     strings.Join(parts, textBlockSep),
		}
	}
}

func renderMarkdownText(content string, width int) string {
	if width <= 4 {
		width = 84
	}

	// Preprocess: strip markdown link syntax [text](url) so links
	// appear as plain URLs the terminal can make clickable
	content = preprocessLinks(content)

	// Disable autolink so plain URLs stay plain text
	defaultExt := markdown.Extensions()
	customExt := defaultExt &^ parser.Autolink
	p := parser.NewWithExtensions(customExt)
	r := markdown.NewRenderer(width-4, 0)
	doc := p.Parse([]byte(content))
	rendered := gomarkdown.Render(doc, r)

	return postProcessMarkdown(string(rendered), width)
}

func postProcessMarkdown(rendered string, width int) string {
	// 1. Fix inline code: blue background to red text
	rendered = fixInlineCode(rendered)

	// 2. Color plain URLs red (autolink disabled keeps URLs plain)
	rendered = fixMarkdownLinks(rendered)

	// 3. Frame code blocks with horizontal lines
	rendered = frameCodeBlocks(rendered, width)

	return rendered
}

func preprocessLinks(content string) string {
	return mdLinkRegex.ReplaceAllString(content, "$2")
}

func fixInlineCode(s string) string {
	// Replace: \x1b[44;3m...text...\x1b[0m (blue BG + italic)
	// With:    \x1b[31m...text...\x1b[0m (red text)
	return inlineCodeRegex.ReplaceAllString(s, "\x1b[31m$1\x1b[0m")
}

func fixMarkdownLinks(s string) string {
	redColor := "\x1b[31m"
	reset := "\x1b[0m"

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		// Skip code blocks (they carry the ┃ prefix from the renderer)
		if !strings.Contains(line, "┃") {
			lines[i] = urlRegex.ReplaceAllString(line, redColor+"$1"+reset)
		}
	}
	return strings.Join(lines, "\n")
}

func frameCodeBlocks(s string, width int) string {
	lines := strings.Split(s, "\n")
	var result []string
	var codeBlockLines []string
	inCodeBlock := false

	darkGray := "\x1b[90m"
	reset := "\x1b[0m"

	for _, line := range lines {
		if strings.Contains(line, "┃") {
			if !inCodeBlock {
				inCodeBlock = true
				codeBlockLines = []string{}
				result = append(result, "")

				// Top border with [code] label centered
				label := "[code]"
				lineLen := width - 4
				leftLen := (lineLen - len(label)) / 2
				rightLen := lineLen - len(label) - leftLen
				if leftLen < 0 {
					leftLen = 0
				}
				if rightLen < 0 {
					rightLen = 0
				}
				border := darkGray + strings.Repeat("━", leftLen) + reset + label + darkGray + strings.Repeat("━", rightLen) + reset
				result = append(result, border, "")
			}
			codeBlockLines = append(codeBlockLines, stripCodeBlockPrefix(line))
		} else {
			if inCodeBlock {
				result = append(result, codeBlockLines...)
				result = append(result, "")
				border := darkGray + strings.Repeat("━", max(width-4, 0)) + reset
				result = append(result, border, "")
				codeBlockLines = nil
				inCodeBlock = false
			}
			result = append(result, line)
		}
	}

	if inCodeBlock && len(codeBlockLines) > 0 {
		result = append(result, codeBlockLines...)
		result = append(result, "")
		border := darkGray + strings.Repeat("━", max(width-4, 0)) + reset
		result = append(result, border, "")
	}

	return strings.Join(result, "\n")
}

func stripCodeBlockPrefix(line string) string {
	idx := strings.Index(line, "┃")
	if idx >= 0 {
		after := idx + len("┃")
		if after < len(line) && line[after] == ' ' {
			after++
		}
		if after < len(line) {
			return line[after:]
		}
		return ""
	}
	return line
}
