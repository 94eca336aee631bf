package mcpserver

// TrackerFormatContract describes the tracker definition format and the
// trackable-note conventions that LLM consumers should follow when writing
// entries or authoring trackers.
const TrackerFormatContract = `# Dagaz Tracker Format Contract

Dagaz extracts daily numeric data from Markdown notes. A tracker definition
names WHERE to look and WHAT to extract; the notes themselves carry the data.

## Tracker definition (YAML, one file per tracker)

` + "```" + `yaml
name: exercise                  # OPTIONAL - defaults to the file name stem
folder: diary                   # vault folder to scan (empty for the root)
include_subfolders: true        # OPTIONAL - defaults to true
date_format: YYYY-MM-DD         # how note file names encode their date
date_prefix: ""                 # OPTIONAL - stripped before date parsing
date_suffix: ""                 # OPTIONAL - stripped before date parsing
start_date: ""                  # OPTIONAL - clamp the window, in date_format
end_date: ""                    # OPTIONAL - clamp the window, in date_format
separator: "/"                  # OPTIONAL - multi-value separator default
queries:
  - type: tag                   # see Query types below
    target: pushup
  - type: frontmatter
    target: sleep[0]            # [n] picks one element of a multi-value field
    ignore_zero_value: true
` + "```" + `

## Query types

| type        | target semantics                                              |
|-------------|---------------------------------------------------------------|
| frontmatter | frontmatter key, optionally with ` + "`" + `[n]` + "`" + ` accessors           |
| tag         | inline ` + "`" + `#target` + "`" + ` (optionally ` + "`" + `#target:value` + "`" + `) and entries  |
|             | of the frontmatter ` + "`" + `tags` + "`" + ` list; nested tags count          |
| wiki        | exact wikilink target; each occurrence counts                 |
| text        | Go regular expression; a ` + "`" + `(?P<value>...)` + "`" + ` group extracts   |
| dvfield     | dataview inline field ` + "`" + `target:: value` + "`" + `                     |
| table       | markdown table column, ` + "`" + `path[tableIndex][column]` + "`" + `          |

## Trackable note conventions

1. **File name carries the date.** ` + "`" + `2023-01-05.md` + "`" + ` under the tracked
   folder is the day's note when ` + "`" + `date_format: YYYY-MM-DD` + "`" + `. The parse is
   strict: zero-padded fields must be zero-padded.
2. **Inline tags:** ` + "`" + `#pushup` + "`" + ` counts 1, ` + "`" + `#pushup:30` + "`" + ` contributes 30.
   A tag with an unparseable value still marks the day as tracked.
3. **Frontmatter keys:** plain numbers, clock times (` + "`" + `21:30` + "`" + `, parsed to
   seconds), or separator-joined multi-values (` + "`" + `8.5/21:30` + "`" + `).
4. **Dataview fields:** ` + "`" + `meditation:: 15` + "`" + ` on its own line or after a space;
   ` + "`" + `**meditation**:: 15` + "`" + ` also works.
5. **Clock times** become seconds since midnight (` + "`" + `06:20` + "`" + ` -> 22800).
   AM/PM suffixes are honored.
6. **Encoding** is UTF-8 with a trailing newline; paths use forward slashes
   and end with ` + "`" + `.md` + "`" + `.

## Example entry

` + "```" + `markdown
---
sleep: 7.5
weight: 71.2
---

Morning run done. #running:5.2

meditation:: 15

Evening sets #pushup:30 #pushup:25
` + "```" + `
`
