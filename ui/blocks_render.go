package ui

import (
	"fmt"
	"sort"
	"strings"

	appmodel "mentis/model"
)

// textBlockSep separates per-text-block markdown in Message.Rendered.
// The renderer walks the typed blocks and consumes one rendered part per
// text block, so thought panels and tool cards can be re-styled without
// re-rendering markdown.
const textBlockSep = "\x1f"

// blockRenderOpts carries per-render display state into the block
// renderer. The renderer itself is stateless.
type blockRenderOpts struct {
	width         int
	showThoughts  bool
	streaming     bool
	cursorVisible bool
	pulse         string // current spinner frame for active indicators
}

// renderBlocks renders an ordered block list into terminal text.
// renderedParts holds cached markdown for text blocks, one entry per
// text block in order; when it runs out the raw content is used.
// Unknown block types are skipped.
func renderBlocks(blocks []appmodel.MessageBlock, renderedParts []string, opts blockRenderOpts) string {
	var out strings.Builder
	textIdx := 0

	for _, block := range blocks {
		switch block.Type {
		case appmodel.BlockText:
			body := block.Content
			if textIdx < len(renderedParts) && renderedParts[textIdx] != "" {
				body = renderedParts[textIdx]
			}
			textIdx++
			out.WriteString(strings.TrimRight(body, "\n"))
			out.WriteString("\n")

		case appmodel.BlockThought:
			out.WriteString(renderThoughtPanel(block, opts))
			out.WriteString("\n")

		case appmodel.BlockToolCall:
			out.WriteString(renderToolCard(block, opts))
			out.WriteString("\n")
		}
	}

	return strings.TrimRight(out.String(), "\n")
}

// renderThoughtPanel renders a collapsible reasoning panel. Panels are
// closed by default and show only the header with an approximate token
// cost; an in-progress panel shows the pulse instead of a cost.
func renderThoughtPanel(block appmodel.MessageBlock, opts blockRenderOpts) string {
	if block.InProgress {
		header := ThoughtHeaderStyle.Render(fmt.Sprintf("%s Thinking...", opts.pulse))
		if !opts.showThoughts || block.Content == "" {
			return header
		}
		return header + "\n" + indentThought(block.Content)
	}

	cost := thoughtCost(block.Content)
	if !opts.showThoughts {
		return ThoughtHeaderStyle.Render(fmt.Sprintf("▸ Thought (%s) - Alt+T to expand", cost))
	}

	header := ThoughtHeaderStyle.Render(fmt.Sprintf("▾ Thought (%s)", cost))
	return header + "\n" + indentThought(block.Content)
}

func indentThought(content string) string {
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = ThoughtBodyStyle.Render("  │ " + line)
	}
	return strings.Join(lines, "\n")
}

// thoughtCost estimates the token cost of a reasoning segment. Rough
// 4-chars-per-token heuristic, floor of 1 for non-empty content.
func thoughtCost(content string) string {
	if content == "" {
		return "~0 tokens"
	}
	tokens := len(content) / 4
	if tokens < 1 {
		tokens = 1
	}
	return fmt.Sprintf("~%d tokens", tokens)
}

// renderToolCard renders one tool call as a status-colored card
func renderToolCard(block appmodel.MessageBlock, opts blockRenderOpts) string {
	var style = ToolSuccessStyle
	var marker string

	switch block.ToolStatus {
	case appmodel.ToolCallRunning:
		style = ToolRunningStyle
		marker = opts.pulse
		if marker == "" {
			marker = "◐"
		}
	case appmodel.ToolCallError:
		style = ToolErrorStyle
		marker = "✗"
	default:
		marker = "✓"
	}

	header := style.Render(fmt.Sprintf("%s 🔧 %s", marker, block.ToolName))

	args := summarizeToolArgs(block.ToolArgs)
	if args == "" {
		return header
	}
	return header + "\n" + DimStyle.Render("  "+args)
}

// summarizeToolArgs flattens tool arguments into a single stable line.
// Keys are sorted so the same call always renders the same card.
func summarizeToolArgs(args map[string]interface{}) string {
	if len(args) == 0 {
		return ""
	}

	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var parts []string
	for _, k := range keys {
		v := truncate(fmt.Sprintf("%v", args[k]), 40)
		parts = append(parts, fmt.Sprintf("%s: %s", k, v))
	}

	return truncate(strings.Join(parts, ", "), 100)
}

// renderStatusStrip renders the backend progress strip: a check for
// completed stages, the pulse for the active one, a dim dot for stages
// not yet reached. detail, when present, annotates the active stage.
func renderStatusStrip(activeIdx int, detail, pulse string) string {
	var parts []string

	for i, stage := range appmodel.Stages {
		switch {
		case i < activeIdx:
			parts = append(parts, StageDoneStyle.Render("✓ "+stage))
		case i == activeIdx:
			label := pulse + " " + stage
			if detail != "" {
				label += " (" + detail + ")"
			}
			parts = append(parts, StageActiveStyle.Render(label))
		default:
			parts = append(parts, StagePendingStyle.Render("· "+stage))
		}
	}

	return strings.Join(parts, StagePendingStyle.Render(" → "))
}

// statusDetail extracts the human annotation for the active stage from
// a backend status event. The detail meta key wins over the raw code.
func statusDetail(meta map[string]interface{}, code string) string {
	if meta != nil {
		if d, ok := meta["detail"].(string); ok && d != "" {
			return d
		}
	}
	return code
}
