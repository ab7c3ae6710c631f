package rule

import "embed"

// builtinRulesFS embeds the built-in rules directory.
//
//go:embed rules/*.yml
var builtinRulesFS embed.FS

// builtinRulesetsFS embeds the built-in rulesets directory.
//
//go:embed rulesets/*.yml
var builtinRulesetsFS embed.FS
