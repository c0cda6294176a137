package model

import (
	"reflect"
	"testing"
)

func TestNormalizeContentPlainText(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []MessageBlock
	}{
		{
			name:  "plain text is a single block",
			input: "Hello there",
			want:  []MessageBlock{{Type: BlockText, Content: "Hello there"}},
		},
		{
			name:  "empty input yields no blocks",
			input: "",
			want:  nil,
		},
		{
			name:  "whitespace only yields no blocks",
			input: "   \n\t  ",
			want:  nil,
		},
		{
			name:  "multiline text stays one block",
			input: "line one\nline two\n\nline three",
			want:  []MessageBlock{{Type: BlockText, Content: "line one\nline two\n\nline three"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeContent(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("NormalizeContent(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeContentThoughts(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []MessageBlock
	}{
		{
			name:  "thought between text segments",
			input: "a<think>b</think>c",
			want: []MessageBlock{
				{Type: BlockText, Content: "a"},
				{Type: BlockThought, Content: "b"},
				{Type: BlockText, Content: "c"},
			},
		},
		{
			name:  "interior and surrounding whitespace trimmed",
			input: "  Hi <think>\n  thinking...\n</think> there  ",
			want: []MessageBlock{
				{Type: BlockText, Content: "Hi"},
				{Type: BlockThought, Content: "thinking..."},
				{Type: BlockText, Content: "there"},
			},
		},
		{
			name:  "leading thought with no preceding text",
			input: "<think>plan</think>answer",
			want: []MessageBlock{
				{Type: BlockThought, Content: "plan"},
				{Type: BlockText, Content: "answer"},
			},
		},
		{
			name:  "two thoughts",
			input: "<think>one</think>mid<think>two</think>",
			want: []MessageBlock{
				{Type: BlockThought, Content: "one"},
				{Type: BlockText, Content: "mid"},
				{Type: BlockThought, Content: "two"},
			},
		},
		{
			name:  "unterminated open tag is not a match",
			input: "before <think>never closed",
			want:  []MessageBlock{{Type: BlockText, Content: "before <think>never closed"}},
		},
		{
			name:  "empty thought on final message dropped",
			input: "a<think>  </think>b",
			want: []MessageBlock{
				{Type: BlockText, Content: "a"},
				{Type: BlockText, Content: "b"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeContent(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("NormalizeContent(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeContentIdempotent(t *testing.T) {
	inputs := []string{
		"",
		"plain",
		"a<think>b</think>c",
		"before <think>open",
		`x<tool_call>{"name":"web.search","arguments":{"query":"go"}}</tool_call>y`,
		"<tool_call>not json</tool_call>",
	}

	for _, input := range inputs {
		first := NormalizeContent(input)
		second := NormalizeContent(input)
		if !reflect.DeepEqual(first, second) {
			t.Errorf("NormalizeContent(%q) not deterministic: %+v vs %+v", input, first, second)
		}
	}
}

func TestNormalizeContentToolCalls(t *testing.T) {
	t.Run("well formed call becomes a card block", func(t *testing.T) {
		input := `done<tool_call>{"name":"fs.read","arguments":{"path":"/tmp/x"},"status":"running"}</tool_call>`
		got := NormalizeContent(input)

		want := []MessageBlock{
			{Type: BlockText, Content: "done"},
			{
				Type:       BlockToolCall,
				ToolName:   "fs.read",
				ToolArgs:   map[string]interface{}{"path": "/tmp/x"},
				ToolStatus: ToolCallRunning,
			},
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("got %+v, want %+v", got, want)
		}
	})

	t.Run("status defaults to success", func(t *testing.T) {
		got := NormalizeContent(`<tool_call>{"name":"web.search"}</tool_call>`)
		if len(got) != 1 || got[0].ToolStatus != ToolCallSuccess {
			t.Fatalf("got %+v, want single success tool call", got)
		}
	})

	t.Run("malformed body degrades to text", func(t *testing.T) {
		input := `<tool_call>{broken json</tool_call>`
		got := NormalizeContent(input)
		want := []MessageBlock{{Type: BlockText, Content: input}}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("got %+v, want %+v", got, want)
		}
	})

	t.Run("body without a name degrades to text", func(t *testing.T) {
		got := NormalizeContent(`<tool_call>{"arguments":{}}</tool_call>`)
		if len(got) != 1 || got[0].Type != BlockText {
			t.Fatalf("got %+v, want single text block", got)
		}
	})
}

func TestNormalizeStreaming(t *testing.T) {
	t.Run("unterminated think becomes in-progress thought", func(t *testing.T) {
		got := NormalizeStreaming("Hi <think>working on it")
		want := []MessageBlock{
			{Type: BlockText, Content: "Hi"},
			{Type: BlockThought, Content: "working on it", InProgress: true},
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("got %+v, want %+v", got, want)
		}
	})

	t.Run("just-opened think yields empty in-progress thought", func(t *testing.T) {
		got := NormalizeStreaming("<think>")
		want := []MessageBlock{
			{Type: BlockThought, Content: "", InProgress: true},
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("got %+v, want %+v", got, want)
		}
	})

	t.Run("partial tool call body is withheld", func(t *testing.T) {
		got := NormalizeStreaming(`text<tool_call>{"name":"fs.re`)
		want := []MessageBlock{{Type: BlockText, Content: "text"}}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("got %+v, want %+v", got, want)
		}
	})

	t.Run("closed think parses the same as final", func(t *testing.T) {
		streaming := NormalizeStreaming("a<think>b</think>c")
		final := NormalizeContent("a<think>b</think>c")
		if !reflect.DeepEqual(streaming, final) {
			t.Errorf("streaming %+v differs from final %+v", streaming, final)
		}
	})
}
