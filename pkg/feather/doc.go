// Package feather is a logic-light template compiler.
//
// A Template is parsed once into a program and rendered many times against
// different variables, partial registries and layout chains. Tags are
// delimited by {{ and }} and start with an optional sigil:
//
//	{{name}}     lookup, escaped per the template's escape mode
//	{{=name}}    raw lookup
//	{{&name}}    markup-escaped lookup
//	{{%name}}    URI-escaped lookup
//	{{$name}}    script-escaped lookup
//	{{.name}}    style-escaped lookup
//	{{#name}}    section, also {{:name}}: repeats for each list element
//	{{^name}}    inverted section: renders when name is falsy
//	{{?name}}    conditional, {{?!name}} negated
//	{{*name}}    partial resolved through the Registry
//	{{*}}        layout slot: the output of the wrapped template
//	{{/name}}    closes the innermost block
//
// In literal text, three or more braces in a row lose one brace, so "{{{"
// renders as "{{".
package feather
