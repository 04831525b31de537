// Package prompt composes completion prompts from fixed per-task templates.
// Templates interpolate context sections, prior conversation turns, and the
// current query; retrieval and generation code never touch template text.
package prompt

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/castforge/castforge/internal/domain"
)

// Task selects the prompt template.
type Task string

const (
	TaskDocumentQA          Task = "document_qa"
	TaskPodcastChat         Task = "podcast_chat"
	TaskDocumentPodcastChat Task = "document_podcast_chat"
	TaskVideoPodcastChat    Task = "video_podcast_chat"
	TaskDocumentDialogue    Task = "document_dialogue"
	TaskVideoDialogue       Task = "video_dialogue"
)

// DocumentQAData feeds TaskDocumentQA.
type DocumentQAData struct {
	Context  string
	History  string
	Question string
}

// PodcastChatData feeds TaskPodcastChat: one document segment plus the
// relevance excerpt and the full script.
type PodcastChatData struct {
	SpeakerOne      string
	SpeakerTwo      string
	SegmentIndex    int
	SegmentCount    int
	Segment         string
	RelevantContext string
	Script          string
	History         string
	Question        string
}

// DocumentPodcastChatData feeds TaskDocumentPodcastChat: trimmed document
// sections plus a script excerpt, answered in one completion.
type DocumentPodcastChatData struct {
	KeyPoints       string
	RelevantContext string
	ScriptExcerpt   string
	History         string
	Question        string
}

// VideoPodcastChatData feeds TaskVideoPodcastChat.
type VideoPodcastChatData struct {
	KeyPoints       string
	RelevantContext string
	ScriptExcerpt   string
	History         string
	Question        string
}

// DialogueData feeds the dialogue synthesis tasks.
type DialogueData struct {
	SpeakerOne  string
	SpeakerTwo  string
	TargetLines int
	Content     string
}

// Builder renders prompts from the fixed task templates.
type Builder struct {
	templates map[Task]*template.Template
}

// NewBuilder parses the task templates. Parse failures are programmer errors
// and surface at construction.
func NewBuilder() (*Builder, error) {
	sources := map[Task]string{
		TaskDocumentQA:          documentQATemplate,
		TaskPodcastChat:         podcastChatTemplate,
		TaskDocumentPodcastChat: documentPodcastChatTemplate,
		TaskVideoPodcastChat:    videoPodcastChatTemplate,
		TaskDocumentDialogue:    documentDialogueTemplate,
		TaskVideoDialogue:       videoDialogueTemplate,
	}

	templates := make(map[Task]*template.Template, len(sources))
	for task, src := range sources {
		tmpl, err := template.New(string(task)).Parse(src)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", task, err)
		}
		templates[task] = tmpl
	}
	return &Builder{templates: templates}, nil
}

// Render executes the template for the given task.
func (b *Builder) Render(task Task, data any) (string, error) {
	tmpl, ok := b.templates[task]
	if !ok {
		return "", fmt.Errorf("unknown prompt task %q", task)
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("render %s: %w", task, err)
	}
	return sb.String(), nil
}

// RenderHistory flattens prior turns into "role: content" lines.
func RenderHistory(turns []domain.Turn) string {
	lines := make([]string, len(turns))
	for i, t := range turns {
		lines[i] = t.Role + ": " + t.Content
	}
	return strings.Join(lines, "\n")
}

// LastTurns returns at most n trailing turns of the history.
func LastTurns(turns []domain.Turn, n int) []domain.Turn {
	if len(turns) <= n {
		return turns
	}
	return turns[len(turns)-n:]
}
