package ui

import (
	"strings"
	"testing"
	"unicode/utf8"

	appmodel "mentis/model"
)

func TestRenderBlocksOrdering(t *testing.T) {
	blocks := []appmodel.MessageBlock{
		{Type: appmodel.BlockText, Content: "before"},
		{Type: appmodel.BlockThought, Content: "reasoning here"},
		{Type: appmodel.BlockToolCall, ToolName: "filesystem.read_file", ToolStatus: appmodel.ToolCallSuccess},
		{Type: appmodel.BlockText, Content: "after"},
	}

	out := renderBlocks(blocks, nil, blockRenderOpts{width: 80})

	beforeIdx := strings.Index(out, "before")
	thoughtIdx := strings.Index(out, "Thought")
	toolIdx := strings.Index(out, "filesystem.read_file")
	afterIdx := strings.Index(out, "after")

	for name, idx := range map[string]int{"before": beforeIdx, "Thought": thoughtIdx, "tool": toolIdx, "after": afterIdx} {
		if idx == -1 {
			t.Fatalf("expected %s in output, got:\n%s", name, out)
		}
	}
	if !(beforeIdx < thoughtIdx && thoughtIdx < toolIdx && toolIdx < afterIdx) {
		t.Errorf("blocks rendered out of order: %d %d %d %d", beforeIdx, thoughtIdx, toolIdx, afterIdx)
	}
}

func TestRenderBlocksSkipsUnknownTypes(t *testing.T) {
	blocks := []appmodel.MessageBlock{
		{Type: appmodel.BlockText, Content: "visible"},
		{Type: appmodel.BlockType("banner"), Content: "should not appear"},
	}

	out := renderBlocks(blocks, nil, blockRenderOpts{width: 80})
	if !strings.Contains(out, "visible") {
		t.Errorf("expected text block in output")
	}
	if strings.Contains(out, "should not appear") {
		t.Errorf("unknown block type should be skipped, got:\n%s", out)
	}
}

func TestRenderBlocksUsesRenderedParts(t *testing.T) {
	blocks := []appmodel.MessageBlock{
		{Type: appmodel.BlockText, Content: "raw one"},
		{Type: appmodel.BlockThought, Content: "thinking"},
		{Type: appmodel.BlockText, Content: "raw two"},
	}
	parts := []string{"RENDERED-ONE", "RENDERED-TWO"}

	out := renderBlocks(blocks, parts, blockRenderOpts{width: 80})
	if !strings.Contains(out, "RENDERED-ONE") || !strings.Contains(out, "RENDERED-TWO") {
		t.Errorf("expected cached markdown for text blocks, got:\n%s", out)
	}
	if strings.Contains(out, "raw one") {
		t.Errorf("raw content should be replaced by cached markdown")
	}
}

func TestRenderBlocksFallsBackWhenCacheShort(t *testing.T) {
	blocks := []appmodel.MessageBlock{
		{Type: appmodel.BlockText, Content: "first"},
		{Type: appmodel.BlockText, Content: "second"},
	}
	parts := []string{"RENDERED-FIRST"}

	out := renderBlocks(blocks, parts, blockRenderOpts{width: 80})
	if !strings.Contains(out, "RENDERED-FIRST") {
		t.Errorf("expected cached first block")
	}
	if !strings.Contains(out, "second") {
		t.Errorf("expected raw fallback for uncached block, got:\n%s", out)
	}
}

func TestThoughtPanelCollapsedByDefault(t *testing.T) {
	block := appmodel.MessageBlock{Type: appmodel.BlockThought, Content: "secret reasoning body"}

	collapsed := renderThoughtPanel(block, blockRenderOpts{})
	if strings.Contains(collapsed, "secret reasoning body") {
		t.Errorf("collapsed panel must not show the body")
	}
	if !strings.Contains(collapsed, "tokens") {
		t.Errorf("collapsed panel should show a cost label, got: %s", collapsed)
	}

	expanded := renderThoughtPanel(block, blockRenderOpts{showThoughts: true})
	if !strings.Contains(expanded, "secret reasoning body") {
		t.Errorf("expanded panel should show the body, got: %s", expanded)
	}
}

func TestThoughtPanelInProgress(t *testing.T) {
	block := appmodel.MessageBlock{Type: appmodel.BlockThought, Content: "partial", InProgress: true}

	out := renderThoughtPanel(block, blockRenderOpts{pulse: "◐"})
	if !strings.Contains(out, "Thinking") {
		t.Errorf("in-progress panel should show the thinking header, got: %s", out)
	}
	if strings.Contains(out, "tokens") {
		t.Errorf("in-progress panel has no cost yet")
	}
}

func TestThoughtCost(t *testing.T) {
	tests := []struct {
		content string
		want    string
	}{
		{"", "~0 tokens"},
		{"abc", "~1 tokens"},
		{strings.Repeat("x", 400), "~100 tokens"},
	}

	for _, tt := range tests {
		if got := thoughtCost(tt.content); got != tt.want {
			t.Errorf("thoughtCost(%d chars) = %q, want %q", len(tt.content), got, tt.want)
		}
	}
}

func TestRenderToolCardStatuses(t *testing.T) {
	tests := []struct {
		status appmodel.ToolCallStatus
		marker string
	}{
		{appmodel.ToolCallSuccess, "✓"},
		{appmodel.ToolCallError, "✗"},
		{appmodel.ToolCallRunning, "◐"},
	}

	for _, tt := range tests {
		block := appmodel.MessageBlock{
			Type:       appmodel.BlockToolCall,
			ToolName:   "search.query",
			ToolStatus: tt.status,
		}
		out := renderToolCard(block, blockRenderOpts{})
		if !strings.Contains(out, tt.marker) {
			t.Errorf("status %s: expected marker %q in %q", tt.status, tt.marker, out)
		}
		if !strings.Contains(out, "search.query") {
			t.Errorf("status %s: expected tool name in card", tt.status)
		}
	}
}

func TestSummarizeToolArgs(t *testing.T) {
	args := map[string]interface{}{
		"path":  "/tmp/file.txt",
		"limit": 10,
	}

	out := summarizeToolArgs(args)
	// Keys sort alphabetically so the card is stable across renders
	if !strings.HasPrefix(out, "limit: 10") {
		t.Errorf("expected sorted keys, got %q", out)
	}
	if !strings.Contains(out, "path: /tmp/file.txt") {
		t.Errorf("expected path arg, got %q", out)
	}

	if got := summarizeToolArgs(nil); got != "" {
		t.Errorf("nil args should summarize to empty, got %q", got)
	}
}

func TestSummarizeToolArgsTruncatesOnRuneBoundaries(t *testing.T) {
	args := map[string]interface{}{
		"query": strings.Repeat("日本語テキスト", 20),
	}

	out := summarizeToolArgs(args)
	if !utf8.ValidString(out) {
		t.Errorf("truncation split a rune: %q", out)
	}
	if !strings.HasSuffix(out, "...") {
		t.Errorf("long value should be elided, got %q", out)
	}

	// Many long values also hit the whole-line cap
	args = map[string]interface{}{
		"a": strings.Repeat("héllo ", 10),
		"b": strings.Repeat("wörld ", 10),
		"c": strings.Repeat("日本語", 15),
	}
	out = summarizeToolArgs(args)
	if !utf8.ValidString(out) {
		t.Errorf("line truncation split a rune: %q", out)
	}
}

func TestRenderStatusStrip(t *testing.T) {
	out := renderStatusStrip(2, "", "◐")

	// Stages before the active index get a check, the active one the
	// pulse, later ones a dim dot
	if !strings.Contains(out, "✓ listen") || !strings.Contains(out, "✓ remember") {
		t.Errorf("expected completed stages checked, got: %s", out)
	}
	if !strings.Contains(out, "◐ evolve") {
		t.Errorf("expected active stage pulsing, got: %s", out)
	}
	if !strings.Contains(out, "· render") {
		t.Errorf("expected pending stage dimmed, got: %s", out)
	}
}

func TestRenderStatusStripDetail(t *testing.T) {
	out := renderStatusStrip(1, "searching memory", "◐")
	if !strings.Contains(out, "remember (searching memory)") {
		t.Errorf("expected detail annotation on active stage, got: %s", out)
	}
}

func TestStatusDetail(t *testing.T) {
	tests := []struct {
		name string
		meta map[string]interface{}
		code string
		want string
	}{
		{"meta wins", map[string]interface{}{"detail": "loading graph"}, "MEM01", "loading graph"},
		{"code fallback", map[string]interface{}{"other": true}, "MEM01", "MEM01"},
		{"nil meta", nil, "MEM01", "MEM01"},
		{"non-string detail", map[string]interface{}{"detail": 42}, "MEM01", "MEM01"},
		{"all empty", nil, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := statusDetail(tt.meta, tt.code); got != tt.want {
				t.Errorf("statusDetail() = %q, want %q", got, tt.want)
			}
		})
	}
}
