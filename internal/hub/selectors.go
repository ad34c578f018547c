package hub

// DOM selectors for the current site layout.
const (
	selConsentAccept  = ".cky-btn.cky-btn-accept"
	selConsentOverlay = ".cky-overlay"

	selLoginLink     = `a[data-cy="account-menu-login"]`
	selUsernameInput = `input[name="username"]`
	selPasswordInput = `input[name="password"]`
	selSubmitButton  = `button[type="submit"]`

	selArticlePreview = `.content a[data-cy="article-preview-link"]`
	selArticleTitle   = "h3"
	selArticleBody    = "article.article div.mt-3.text-base.content-body.text-black-400"
)
