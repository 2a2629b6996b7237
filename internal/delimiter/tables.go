package delimiter

var (
	displayOpen  = []string{"$$", `\[`, `\(`}
	displayClose = []string{"$$", `\]`, `\)`}
	inlineOpen   = []string{"$", `\(`}
	inlineClose  = []string{"$", `\)`}

	envDisplayOpen = []string{
		`\begin{equation}`, `\begin{equation*}`,
		`\begin{align}`, `\begin{align*}`,
		`\begin{gather}`, `\begin{gather*}`,
		`\begin{displaymath}`, `\begin{math}`,
	}
	envDisplayClose = []string{
		`\end{equation}`, `\end{equation*}`,
		`\end{align}`, `\end{align*}`,
		`\end{gather}`, `\end{gather*}`,
		`\end{displaymath}`, `\end{math}`,
	}
	envInlineOpen  = []string{`\begin{math}`}
	envInlineClose = []string{`\end{math}`}
)

// Opening returns the candidate opening delimiters for a math run. env adds
// the environment delimiters of LaTeX documents.
func Opening(display, env bool) []string {
	if display {
		return join(displayOpen, env, envDisplayOpen)
	}
	return join(inlineOpen, env, envInlineOpen)
}

// Closing returns the candidate closing delimiters for a math run.
func Closing(display, env bool) []string {
	if display {
		return join(displayClose, env, envDisplayClose)
	}
	return join(inlineClose, env, envInlineClose)
}

func join(base []string, env bool, extra []string) []string {
	out := make([]string, 0, len(base)+len(extra))
	out = append(out, base...)
	if env {
		out = append(out, extra...)
	}
	return out
}
