package config

// Agent names used across the CLI
const (
	AgentCommitGenerator  = "commit_generator"
	AgentQAHelper         = "qahelper"
	AgentUpdateDocstrings = "update_docstrings"
	AgentCodeEditor       = "code_editor"
	AgentChat             = "chat"
)

// legacyAgentNames maps old prompt keys to the agents that replaced them.
var legacyAgentNames = map[string]string{
	"autocommit": AgentCommitGenerator,
}

// DefaultAgents lists the agents shown and updated by the model command.
var DefaultAgents = []string{
	AgentCommitGenerator,
	AgentQAHelper,
	AgentUpdateDocstrings,
	AgentCodeEditor,
	AgentChat,
}

// Config is the fully merged configuration
type Config struct {
	Core      CoreConfig                `mapstructure:"core" yaml:"core"`
	Providers map[string]ProviderConfig `mapstructure:"providers" yaml:"providers"`
	Agents    map[string]AgentConfig    `mapstructure:"agents" yaml:"agents"`
	Prompts   map[string]string         `mapstructure:"prompts" yaml:"prompts,omitempty"`
}

// CoreConfig holds process-wide settings
type CoreConfig struct {
	Provider       string `mapstructure:"provider" yaml:"provider"`
	Timeout        int    `mapstructure:"timeout" yaml:"timeout"`
	LLMRetries     int    `mapstructure:"llm_retries" yaml:"llm_retries"`
	VerifySSL      bool   `mapstructure:"verify_ssl" yaml:"verify_ssl"`
	Debug          bool   `mapstructure:"debug" yaml:"debug"`
	SimpleMode     bool   `mapstructure:"simple_mode" yaml:"simple_mode"`
	MaxConcurrency int    `mapstructure:"max_concurrency" yaml:"max_concurrency"`
	History        bool   `mapstructure:"history" yaml:"history"`
	RenderMarkdown bool   `mapstructure:"render_markdown" yaml:"render_markdown"`
}

// ProviderConfig describes an OpenAI-compatible endpoint
type ProviderConfig struct {
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
	APIKey  string `mapstructure:"api_key" yaml:"-"`
	Model   string `mapstructure:"model" yaml:"model,omitempty"`
}

// AgentConfig selects the provider, model and sampling settings of one agent.
// Stream is a pointer so that an explicit false can be told apart from unset.
type AgentConfig struct {
	Provider       string   `mapstructure:"provider" yaml:"provider"`
	Model          string   `mapstructure:"model" yaml:"model"`
	Temperature    *float64 `mapstructure:"temperature" yaml:"temperature,omitempty"`
	SystemPrompt   string   `mapstructure:"system_prompt" yaml:"system_prompt,omitempty"`
	Stream         *bool    `mapstructure:"stream" yaml:"stream,omitempty"`
	ReasoningModel bool     `mapstructure:"reasoning_model" yaml:"reasoning_model,omitempty"`
}

// ProviderName returns the agent's provider, defaulting to openai
func (a AgentConfig) ProviderName() string {
	if a.Provider == "" {
		return "openai"
	}
	return a.Provider
}

// ModelName returns the agent's model, defaulting to gpt-4o-mini
func (a AgentConfig) ModelName() string {
	if a.Model == "" {
		return "gpt-4o-mini"
	}
	return a.Model
}

// TemperatureOr returns the configured temperature or def
func (a AgentConfig) TemperatureOr(def float64) float64 {
	if a.Temperature == nil {
		return def
	}
	return *a.Temperature
}

// Streaming reports whether responses should be streamed (default true)
func (a AgentConfig) Streaming() bool {
	if a.Stream == nil {
		return true
	}
	return *a.Stream
}

// StreamSet reports whether stream was configured explicitly
func (a AgentConfig) StreamSet() bool {
	return a.Stream != nil
}

func floatPtr(f float64) *float64 {
	return &f
}

// Defaults returns the built-in configuration
func Defaults() Config {
	return Config{
		Core: CoreConfig{
			Provider:       "openai",
			Timeout:        30,
			LLMRetries:     3,
			VerifySSL:      true,
			MaxConcurrency: 4,
			History:        true,
			RenderMarkdown: true,
		},
		Providers: map[string]ProviderConfig{
			"openai": {BaseURL: "https://api.openai.com/v1"},
			"ollama": {BaseURL: "http://localhost:11434/v1", Model: "llama3"},
		},
		Agents: map[string]AgentConfig{
			AgentCommitGenerator: {
				Provider:    "openai",
				Model:       "gpt-4o-mini",
				Temperature: floatPtr(0.7),
			},
			AgentQAHelper: {
				Provider: "openai",
				Model:    "gpt-4o-mini",
			},
			AgentUpdateDocstrings: {
				Provider: "openai",
				Model:    "gpt-4o-mini",
			},
			AgentCodeEditor: {
				Provider:    "openai",
				Model:       "gpt-4o",
				Temperature: floatPtr(0.3),
			},
			AgentChat: {
				Provider: "openai",
				Model:    "gpt-4o-mini",
			},
		},
		Prompts: map[string]string{
			"autocommit":          promptAutocommit,
			AgentQAHelper:         promptQAHelper,
			AgentUpdateDocstrings: promptUpdateDocstrings,
			"chat_mode":           promptChatMode,
			"file_analysis":       promptFileAnalysis,
			"commit_coordination": promptCommitCoordination,
		},
	}
}

const promptAutocommit = `Your task is to generate a commit message based on the diff provided. Please follow below guidelines while generating the commit message
- Think like a software developer
- Provide a high level description of changes
- Wrap lines at 72 characters
- In case of multiple lines add the character - in front of each line
- Use a maximum of 50 words
- Use standard English
- Try to be concise. Do not write multiple lines if not required
- If you think the diff fixes a common bug, security issue or CVE which you know about, mention that in your response
- Do not repeat instructions in commit message
`

const promptQAHelper = `Your task is to answer the below question to the best of your knowledge. Please follow below guidelines
- Think like a principal software engineer who is assisting a junior developer
- Do not give any nasty comments or answers.
- If you do not know the answer do not make it up, just say 'sorry I do not know answer to that question'
`

const promptUpdateDocstrings = `Your task is to write a Go doc comment for the function provided below. Please follow below guidelines while generating the doc comment
- The first sentence must start with the name of the function and describe what it does
- Describe parameters and return values in plain sentences, not in a list of type annotations
- In your response only the comment text should be sent back, do not send any code back
- Do not prefix lines with // and do not wrap the answer in code fences
- If you cannot determine what a parameter means, do not make it up
- Do not use single quotes or double quotes in the response
- If you do not know the answer do not make it up, just say sorry I do not know that
`

const promptChatMode = `You are Sarathi, a helpful coding assistant working in the directory {current_dir}.
You can read and modify files, inspect git state and run commands with the tools you are given.
Read files before changing them, keep edits minimal, and explain what you changed.
Answer in Markdown.
`

const promptFileAnalysis = `Analyze this git diff and provide a 1-line summary (max 15 words).
Focus on: what changed and why it matters. Be specific about the change.

{diff}`

const promptCommitCoordination = `Generate a git commit message from these file summaries.

Rules:
- First line: imperative mood summary, max 50 chars (e.g., "Add user authentication")
- Blank line after first line
- Bullet points for each significant change
- Max 72 chars per line
- Be concise but informative

File changes:
{summaries}`
