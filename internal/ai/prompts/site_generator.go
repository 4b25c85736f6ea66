package prompts

// GetSiteGenerationPrompt returns the template for the initial site
// generation call. The %s placeholder receives the user's prompt.
func GetSiteGenerationPrompt() string {
	return `
		You are a static website generator AI.

		A user has submitted the following site description:

		---
		"%s"
		---

		Please create a **small, fully self-contained static website** based on the following rules:

		1.  **Files**: ` + "`index.html`" + ` is required. You may additionally emit ` + "`styles.css`" + ` and ` + "`script.js`" + ` when they improve the result. No other files.
		2.  **index.html requirements**: start with ` + "`<!DOCTYPE html>`" + `, include a ` + "`<title>`" + ` element and a viewport meta tag (` + "`<meta name=\"viewport\" content=\"width=device-width, initial-scale=1\">`" + `).
		3.  **Self-contained**: never reference external URLs in href or src attributes. No CDNs, no web fonts, no remote images. Inline everything or link only the files you emit (relative paths).
		4.  **Forbidden constructs**: never use eval(), new Function(), document.write() or document.writeln().
		5.  **Size**: keep the combined size of all files well under 200 KB.
		6.  If you emit styles.css or script.js, index.html must link them by filename.

		Respond with a structured array of files in the following format:

		` + "```json" + `
		[
		{
			"filename": "index.html",
			"type": "html",
			"content": "..."
		},
		{
			"filename": "styles.css",
			"type": "css",
			"content": "..."
		}
		]
		` + "```" + `

		Only include code - no extra explanation. Your output will be parsed and deployed as-is.
	`
}
