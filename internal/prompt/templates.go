package prompt

// Task templates. These are data: swapping one out changes the wording sent
// to the completion provider and nothing else.

const documentQATemplate = `You are a helpful AI assistant answering questions about a PDF document. Use the following context to answer the question. If you cannot find the answer in the context, say so clearly.

Context from the PDF:
{{.Context}}

Previous conversation:
{{.History}}

Question: {{.Question}}

Provide a clear, concise answer based on the context. If citing specific parts, mention the page number.`

const podcastChatTemplate = `You are an AI assistant analyzing both a PDF document and its podcast discussion by {{.SpeakerOne}} and {{.SpeakerTwo}}. Provide detailed, informative responses.

Available Information:
1. Original Document Content (Part {{.SegmentIndex}}/{{.SegmentCount}}):
{{.Segment}}

2. Most Relevant Document Sections:
{{.RelevantContext}}

3. Podcast Discussion:
{{.Script}}

Previous conversation:
{{.History}}

User question: {{.Question}}

Response Guidelines:
1. Analyze the available content and provide a focused response
2. Reference specific details from the document and podcast
3. When citing the document, mention page numbers
4. When referencing the podcast, mention the speaker`

const documentPodcastChatTemplate = `Analyze this PDF document and its podcast discussion. Answer the user's question.

Context:
1. Key Document Points:
{{.KeyPoints}}

2. Relevant Sections:
{{.RelevantContext}}

3. Podcast Excerpt:
{{.ScriptExcerpt}}

Chat History:
{{.History}}

Question: {{.Question}}

Guidelines:
- Reference specific content and page numbers
- Include relevant quotes from the document
- Mention speakers when citing the podcast discussion`

const videoPodcastChatTemplate = `Analyze this YouTube video and its podcast discussion. Answer the user's question.

Context:
1. Key Video Points:
{{.KeyPoints}}

2. Relevant Sections:
{{.RelevantContext}}

3. Podcast Excerpt:
{{.ScriptExcerpt}}

Chat History:
{{.History}}

Question: {{.Question}}

Guidelines:
- Reference specific content
- Include relevant quotes
- Mention speakers when citing podcast`

const documentDialogueTemplate = `Create a detailed, in-depth podcast conversation between {{.SpeakerOne}} and {{.SpeakerTwo}} discussing the following PDF document content. They MUST thoroughly analyze and discuss every aspect of the document in AT LEAST {{.TargetLines}} conversation lines:

{{.Content}}

Guidelines:
1. REQUIRED: Generate AT LEAST {{.TargetLines}} total lines of dialogue
2. Structure the conversation to cover:
   - Document overview and initial impressions (10+ lines)
   - Main points and key findings (20+ lines)
   - Critical analysis of the content (15+ lines)
   - Real-world applications (5+ lines)
   - Personal takeaways (5+ lines)
3. Use natural conversation patterns with detailed responses
4. Each speaker MUST have at least 25 lines
5. NO short responses - each reply should be detailed and meaningful

Format:
- Use ONLY "{{.SpeakerOne}}:" and "{{.SpeakerTwo}}:" as speaker labels
- Make the conversation flow naturally
- Include thoughtful transitions
- NO abbreviated or short exchanges`

const videoDialogueTemplate = `Create a detailed, in-depth podcast conversation between {{.SpeakerOne}} and {{.SpeakerTwo}} discussing the following YouTube video content. They MUST thoroughly analyze and discuss every aspect of the video in AT LEAST {{.TargetLines}} conversation lines:

{{.Content}}

Guidelines:
1. REQUIRED: Generate AT LEAST {{.TargetLines}} total lines of dialogue
2. Structure the conversation to cover:
   - Video overview and initial impressions (10+ lines)
   - Main points and key moments (20+ lines)
   - Critical analysis of the content (15+ lines)
   - Real-world applications (5+ lines)
   - Personal takeaways (5+ lines)
3. Use natural conversation patterns with detailed responses
4. Each speaker MUST have at least 25 lines
5. NO short responses - each reply should be detailed and meaningful

Format:
- Use ONLY "{{.SpeakerOne}}:" and "{{.SpeakerTwo}}:" as speaker labels
- Make the conversation flow naturally
- Include thoughtful transitions
- NO abbreviated or short exchanges`
