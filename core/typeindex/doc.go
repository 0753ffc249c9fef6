// Package typeindex builds the type database of a tree: fully-qualified source
// type names and shader lookup names mapped to their defining files.
//
// Source files are tokenized with a participle lexer and walked with a small
// scope machine that tracks namespaces and enclosing types. A partial type is
// attributed to a file only when the file is named after the type. The same
// qualified name declared twice is a collision: the first file in path order
// keeps it and the collision is reported.
//
// Shader names are accumulated, not collision-rejected: several files may
// declare the same shader name and the duplicate detector decides which of them
// are byte-identical.
package typeindex
