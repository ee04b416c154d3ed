// Copyright (c) 2024 John Millikin <john@john-millikin.com>
//
// Permission to use, copy, modify, and/or distribute this software for any
// purpose with or without fee is hereby granted.
//
// THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH
// REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY
// AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT,
// INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM
// LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR
// OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR
// PERFORMANCE OF THIS SOFTWARE.
//
// SPDX-License-Identifier: 0BSD

package syntax

import (
	"cmp"
	"slices"

	"go.icd-lang.org/icd"
)

type ParseOption interface {
	apply(*ParseOptions)
}

type parseOption func(*ParseOptions)

func (fn parseOption) apply(opts *ParseOptions) {
	fn(opts)
}

// SkipTrivia drops space, line break, and comment nodes from the parsed
// tree. The result no longer unparses to the original source.
func SkipTrivia() ParseOption {
	return parseOption(func(opts *ParseOptions) {
		opts.saveTrivia = false
	})
}

// Parse parses one schema file. Syntax errors do not stop parsing: the
// offending line or declaration is skipped and every error is returned,
// ordered by position. The returned file is nil only when the source
// cannot be tokenized at all.
func Parse(src []byte, opts ...ParseOption) (*File, []*Error) {
	return NewParseOptions(opts...).ParseFile(src)
}

type ParseOptions struct {
	saveTrivia bool
}

func NewParseOptions(opts ...ParseOption) *ParseOptions {
	parseOpts := &ParseOptions{
		saveTrivia: true,
	}
	for _, opt := range opts {
		opt.apply(parseOpts)
	}
	return parseOpts
}

func (opts *ParseOptions) ParseFile(src []byte) (*File, []*Error) {
	tokens, err := NewTokens(src)
	if err != nil {
		return nil, []*Error{err.(*Error)}
	}
	p := &parser{
		opts:   opts,
		tokens: tokens,
	}
	ctx := &parseCtx[File]{
		p:   p,
		src: src,
	}
	file, fileErr := parseFile(ctx)
	if fileErr != nil {
		// parseFile recovers from every syntax error.
		panic(fileErr)
	}
	slices.SortStableFunc(p.errs, func(a, b *Error) int {
		return cmp.Compare(a.span.start, b.span.start)
	})
	return file, p.errs
}

type parser struct {
	opts   *ParseOptions
	tokens *Tokens
	errs   []*Error
}

type parseCtx[T any] struct {
	p          *parser
	src        []byte
	childNodes []Node
	haveToken  bool
	token      Token
	err        *Error
	consumed   uint32
	offset     uint32
}

// ensureToken reads the next token if none is pending. Lexical errors are
// recorded and the offending bytes kept in a ParseError node, so callers
// only ever see well-formed tokens.
func (ctx *parseCtx[T]) ensureToken() bool {
	if ctx.err != nil {
		return false
	}
	if ctx.haveToken {
		return true
	}
	for {
		err := ctx.p.tokens.Next(&ctx.token)
		if err == nil {
			break
		}
		lexErr := err.(*Error)
		ctx.p.errs = append(ctx.p.errs, lexErr)
		ctx.p.tokens.Skip(lexErr.skip)
		ctx.skipBytes(lexErr.skip, lexErr)
	}
	ctx.haveToken = true
	return true
}

func (ctx *parseCtx[T]) readToken() []byte {
	return ctx.src[:ctx.token.Len]
}

func (ctx *parseCtx[T]) advance(n uint32) {
	ctx.src = ctx.src[n:]
	ctx.consumed += n
	ctx.offset += n
}

func (ctx *parseCtx[T]) consumeToken(child Node) {
	ctx.advance(uint32(ctx.token.Len))
	ctx.haveToken = false
	if child != nil {
		ctx.childNodes = append(ctx.childNodes, child)
	}
}

// skipBytes moves n bytes of input into a ParseError node. Adjacent
// skipped input for the same error is merged into one node.
func (ctx *parseCtx[T]) skipBytes(n uint32, err *Error) {
	if int(n) > len(ctx.src) {
		n = uint32(len(ctx.src))
	}
	raw := string(ctx.src[:n])
	if last, ok := lastChild(ctx.childNodes).(*ParseError); ok {
		if last.err == err && last.start+uint32(len(last.raw)) == ctx.offset {
			last.raw += raw
			ctx.advance(n)
			return
		}
	}
	ctx.childNodes = append(ctx.childNodes, &ParseError{
		raw:   raw,
		start: ctx.offset,
		err:   err,
	})
	ctx.advance(n)
}

func (ctx *parseCtx[T]) skipToken(err *Error) {
	ctx.skipBytes(uint32(ctx.token.Len), err)
	ctx.haveToken = false
}

func lastChild(childNodes []Node) Node {
	if len(childNodes) == 0 {
		return nil
	}
	return childNodes[len(childNodes)-1]
}

func (ctx *parseCtx[T]) tokenSpan() Span {
	return Span{
		start: ctx.offset,
		len:   uint32(ctx.token.Len),
	}
}

func (ctx *parseCtx[T]) loop(yield func(struct{}) bool) {
	if ctx.err != nil {
		return
	}
	for {
		consumed := ctx.consumed
		if !yield(struct{}{}) {
			return
		}
		if ctx.err != nil {
			return
		}
		if consumed == ctx.consumed {
			return
		}
	}
}

// resyncLine records the pending error and discards input through the
// next line break. A closing brace is left in place so the enclosing body
// can still terminate.
func (ctx *parseCtx[T]) resyncLine() {
	err := ctx.err
	ctx.p.errs = append(ctx.p.errs, err)
	ctx.err = nil
	for ctx.ensureToken() {
		switch ctx.token.Kind {
		case T_EOF, T_CLOSE_CURL:
			return
		case T_NEWLINE:
			ctx.skipToken(err)
			return
		}
		ctx.skipToken(err)
	}
}

// resyncDecl records the pending error and discards the rest of a
// declaration: everything through the next line break outside of braces,
// including a body whose '{' starts on a following line.
func (ctx *parseCtx[T]) resyncDecl() {
	err := ctx.err
	ctx.p.errs = append(ctx.p.errs, err)
	ctx.err = nil
	depth := 0
	for ctx.ensureToken() {
		switch ctx.token.Kind {
		case T_EOF:
			return
		case T_OPEN_CURL:
			depth += 1
		case T_CLOSE_CURL:
			if depth > 0 {
				depth -= 1
			}
		case T_NEWLINE:
			if depth > 0 {
				break
			}
			ctx.skipToken(err)
			ctx.comments()
			if !ctx.ensureToken() || ctx.token.Kind != T_OPEN_CURL {
				return
			}
			continue
		}
		ctx.skipToken(err)
	}
}

func (ctx *parseCtx[T]) space() {
	if !ctx.ensureToken() {
		return
	}
	if ctx.token.Kind != T_SPACE {
		return
	}
	ctx.consumeSpace()
}

func (ctx *parseCtx[T]) consumeSpace() {
	if !ctx.p.opts.saveTrivia {
		ctx.consumeToken(nil)
		return
	}
	tokenBytes := ctx.readToken()
	var token string
	if len(tokenBytes) == 1 && tokenBytes[0] == ' ' {
		token = " "
	} else {
		token = string(tokenBytes)
	}
	ctx.consumeToken(&Space{
		raw:   token,
		start: ctx.offset,
	})
}

func (ctx *parseCtx[T]) consumeNewline() {
	var child Node
	if ctx.p.opts.saveTrivia {
		child = &Newline{
			crlf:  ctx.token.Len == 2,
			start: ctx.offset,
		}
	}
	ctx.consumeToken(child)
}

func (ctx *parseCtx[T]) consumeComment() {
	var child Node
	if ctx.p.opts.saveTrivia {
		child = &Comment{
			raw:   string(ctx.readToken()),
			start: ctx.offset,
		}
	}
	ctx.consumeToken(child)
}

// comments consumes blank lines, comment lines, and indentation.
func (ctx *parseCtx[T]) comments() {
	for _ = range ctx.loop {
		if !ctx.ensureToken() {
			return
		}
		switch ctx.token.Kind {
		case T_SPACE:
			ctx.consumeSpace()
		case T_NEWLINE:
			ctx.consumeNewline()
		case T_COMMENT:
			ctx.consumeComment()
		default:
			return
		}
	}
}

// endOfLine consumes trailing space, an optional comment, and the line
// break ending a field or declaration. A closing brace or the end of the
// file also ends the line but is left for the caller.
func (ctx *parseCtx[T]) endOfLine() {
	ctx.space()
	if !ctx.ensureToken() {
		return
	}
	if ctx.token.Kind == T_COMMENT {
		ctx.consumeComment()
		if !ctx.ensureToken() {
			return
		}
	}
	switch ctx.token.Kind {
	case T_NEWLINE:
		ctx.consumeNewline()
	case T_EOF, T_CLOSE_CURL:
	default:
		ctx.err = asError(errExpectedNewline(
			ctx.token.Kind,
			string(ctx.readToken()),
			ctx.tokenSpan(),
		))
	}
}

func (ctx *parseCtx[T]) peek(kind TokenKind) bool {
	return ctx.ensureToken() && ctx.token.Kind == kind
}

func (ctx *parseCtx[T]) sigil(kind TokenKind) {
	if !ctx.ensureToken() {
		return
	}
	if ctx.token.Kind != kind {
		ctx.err = asError(errExpectedSigil(
			kind,
			ctx.token.Kind,
			string(ctx.readToken()),
			ctx.tokenSpan(),
		))
		return
	}
	ctx.consumeToken(&Sigil{
		raw:   ctx.src[0],
		start: ctx.offset,
	})
}

func (ctx *parseCtx[T]) trySigil(kind TokenKind) bool {
	if !ctx.peek(kind) {
		return false
	}
	ctx.consumeToken(&Sigil{
		raw:   ctx.src[0],
		start: ctx.offset,
	})
	return true
}

// keyword consumes a token the caller has already checked the kind of.
func (ctx *parseCtx[T]) keyword(kind TokenKind) *Keyword {
	if !ctx.peek(kind) {
		panic("syntax: keyword() called on " + ctx.token.Kind.String())
	}
	keyword := &Keyword{
		raw:   string(ctx.readToken()),
		start: ctx.offset,
	}
	ctx.consumeToken(keyword)
	return keyword
}

func (ctx *parseCtx[T]) ident() *Ident {
	if !ctx.ensureToken() {
		return nil
	}
	token := string(ctx.readToken())
	if ctx.token.Kind != T_IDENT {
		ctx.err = asError(errExpectedIdent(ctx.token.Kind, token, ctx.tokenSpan()))
		return nil
	}
	ident := &Ident{
		raw:   token,
		start: ctx.offset,
	}
	ctx.consumeToken(ident)
	return ident
}

func (ctx *parseCtx[T]) builtinType() *BuiltinType {
	if !ctx.ensureToken() {
		return nil
	}
	token := string(ctx.readToken())
	if ctx.token.Kind != T_TYPE {
		ctx.err = asError(errExpectedBuiltinType(ctx.token.Kind, token, ctx.tokenSpan()))
		return nil
	}
	return ctx.consumeBuiltinType(token)
}

func (ctx *parseCtx[T]) consumeBuiltinType(token string) *BuiltinType {
	type_, _ := icd.LookupType(token)
	node := &BuiltinType{
		raw:   token,
		type_: type_,
		start: ctx.offset,
	}
	ctx.consumeToken(node)
	return node
}

// fieldType returns a *BuiltinType or an *Ident.
func (ctx *parseCtx[T]) fieldType() Node {
	if !ctx.ensureToken() {
		return nil
	}
	switch ctx.token.Kind {
	case T_TYPE:
		return ctx.consumeBuiltinType(string(ctx.readToken()))
	case T_IDENT:
		return ctx.ident()
	}
	ctx.err = asError(errExpectedTypeName(
		ctx.token.Kind,
		string(ctx.readToken()),
		ctx.tokenSpan(),
	))
	return nil
}

// value returns a *NumberLit or an *Ident.
func (ctx *parseCtx[T]) value() Node {
	if !ctx.ensureToken() {
		return nil
	}
	token := string(ctx.readToken())
	switch ctx.token.Kind {
	case T_NUMBER_LIT:
		node := &NumberLit{
			raw:     token,
			isFloat: ctx.token.IsFloat(),
			start:   ctx.offset,
		}
		ctx.consumeToken(node)
		return node
	case T_IDENT:
		return ctx.ident()
	}
	ctx.err = asError(errExpectedValue(ctx.token.Kind, token, ctx.tokenSpan()))
	return nil
}

func (ctx *parseCtx[T]) text() *TextLit {
	if !ctx.ensureToken() {
		return nil
	}
	token := string(ctx.readToken())
	if ctx.token.Kind != T_TEXT_LIT {
		ctx.err = asError(errExpectedTextLit(ctx.token.Kind, token, ctx.tokenSpan()))
		return nil
	}
	node := &TextLit{
		raw:   token,
		start: ctx.offset,
	}
	ctx.consumeToken(node)
	return node
}

func (ctx *parseCtx[T]) finish(
	build func(span Span, childNodes []Node) *T,
) (*T, *Error) {
	if ctx.err != nil {
		return nil, ctx.err
	}
	span := Span{
		start: ctx.offset - ctx.consumed,
		len:   ctx.consumed,
	}
	return build(span, ctx.childNodes), nil
}

func asError(err error) *Error {
	return err.(*Error)
}

// parseChild runs a child parser at the current position. When the child
// fails, the input it consumed is kept as a ParseError node and the error
// becomes the parent's pending error.
func parseChild[P any, C any, PtrC interface {
	*C
	Node
}](
	ctx *parseCtx[P],
	parseChildFn func(*parseCtx[C]) (PtrC, *Error),
) (*C, bool) {
	if ctx.err != nil {
		return nil, false
	}
	childCtx := &parseCtx[C]{
		p:         ctx.p,
		src:       ctx.src,
		haveToken: ctx.haveToken,
		token:     ctx.token,
		offset:    ctx.offset,
	}
	child, err := parseChildFn(childCtx)

	ctx.haveToken = childCtx.haveToken
	ctx.token = childCtx.token

	if err != nil {
		if childCtx.consumed > 0 {
			ctx.skipBytes(childCtx.consumed, err)
		}
		ctx.err = err
		return nil, false
	}
	if childCtx.consumed == 0 {
		return nil, false
	}
	ctx.advance(childCtx.consumed)
	ctx.childNodes = append(ctx.childNodes, child)
	return child, true
}

func parseFile(ctx *parseCtx[File]) (*File, *Error) {
	for _ = range ctx.loop {
		ctx.comments()
		if !ctx.ensureToken() {
			break
		}
		switch ctx.token.Kind {
		case T_EOF:
		case T_KW_CONSTANT:
			parseChild(ctx, parseConst)
		case T_KW_STATE:
			parseChild(ctx, parseState)
		case T_KW_MESSAGEDEF:
			parseChild(ctx, parseMessage)
		default:
			ctx.err = asError(errExpectedDeclaration(
				ctx.token.Kind,
				string(ctx.readToken()),
				ctx.tokenSpan(),
			))
		}
		if ctx.err != nil {
			ctx.resyncDecl()
		}
	}

	return ctx.finish(func(span Span, childNodes []Node) *File {
		return &File{branchNode{
			span:       span,
			childNodes: childNodes,
		}}
	})
}

// parseOptions reads any "-Doc" and "-PW" clauses, in either order.
func parseOptions[T any](ctx *parseCtx[T], options *Options) {
	for _ = range ctx.loop {
		ctx.space()
		if !ctx.ensureToken() {
			return
		}
		switch ctx.token.Kind {
		case T_DOC_MARKER:
			if options.doc != nil {
				ctx.err = asError(errDuplicateOption("-Doc", ctx.tokenSpan()))
				return
			}
			options.doc, _ = parseChild(ctx, parseDocOption)
		case T_BITWORD_MARKER:
			if options.bitword != nil {
				ctx.err = asError(errDuplicateOption("-PW", ctx.tokenSpan()))
				return
			}
			options.bitword, _ = parseChild(ctx, parseBitwordOption)
		default:
			return
		}
	}
}

func parseDocOption(ctx *parseCtx[DocOption]) (*DocOption, *Error) {
	ctx.keyword(T_DOC_MARKER)
	ctx.space()
	text := ctx.text()

	return ctx.finish(func(span Span, childNodes []Node) *DocOption {
		return &DocOption{
			branchNode: branchNode{span, childNodes},
			text:       text,
		}
	})
}

func parseBitwordOption(ctx *parseCtx[BitwordOption]) (*BitwordOption, *Error) {
	ctx.keyword(T_BITWORD_MARKER)
	ctx.space()
	name := ctx.ident()

	return ctx.finish(func(span Span, childNodes []Node) *BitwordOption {
		return &BitwordOption{
			branchNode: branchNode{span, childNodes},
			name:       name,
		}
	})
}

// parseBody reads the lines between '{' and '}'. A line that fails to
// parse is dropped and parsing resumes on the next line.
func parseBody[T any](ctx *parseCtx[T], decl string, parseLine func()) {
	ctx.comments()
	ctx.sigil(T_OPEN_CURL)
	for _ = range ctx.loop {
		ctx.comments()
		if !ctx.ensureToken() {
			return
		}
		switch ctx.token.Kind {
		case T_CLOSE_CURL:
			ctx.sigil(T_CLOSE_CURL)
			ctx.endOfLine()
			return
		case T_EOF:
			ctx.err = asError(errUnterminatedBody(decl, ctx.tokenSpan()))
			return
		}
		parseLine()
		if ctx.err != nil {
			ctx.resyncLine()
		}
	}
}

func parseConst(ctx *parseCtx[Const]) (*Const, *Error) {
	ctx.keyword(T_KW_CONSTANT)
	ctx.space()
	name := ctx.ident()
	ctx.space()
	typeName := ctx.builtinType()
	ctx.space()
	ctx.sigil(T_EQ)
	ctx.space()
	value := ctx.value()
	var options Options
	parseOptions(ctx, &options)
	ctx.endOfLine()

	return ctx.finish(func(span Span, childNodes []Node) *Const {
		return &Const{
			branchNode: branchNode{span, childNodes},
			name:       name,
			typeName:   typeName,
			value:      value,
			options:    options,
		}
	})
}

func parseState(ctx *parseCtx[State]) (*State, *Error) {
	ctx.keyword(T_KW_STATE)
	ctx.space()
	name := ctx.ident()
	var options Options
	parseOptions(ctx, &options)

	var items []*StateItem
	parseBody(ctx, "STATE", func() {
		if item, ok := parseChild(ctx, parseStateItem); ok {
			items = append(items, item)
		}
	})

	return ctx.finish(func(span Span, childNodes []Node) *State {
		return &State{
			branchNode: branchNode{span, childNodes},
			name:       name,
			options:    options,
			items:      items,
		}
	})
}

func parseStateItem(ctx *parseCtx[StateItem]) (*StateItem, *Error) {
	name := ctx.ident()
	ctx.space()
	var value Node
	if ctx.trySigil(T_EQ) {
		ctx.space()
		value = ctx.value()
	}
	var options Options
	parseOptions(ctx, &options)
	ctx.endOfLine()

	return ctx.finish(func(span Span, childNodes []Node) *StateItem {
		return &StateItem{
			branchNode: branchNode{span, childNodes},
			name:       name,
			value:      value,
			options:    options,
		}
	})
}

func parseMessage(ctx *parseCtx[Message]) (*Message, *Error) {
	ctx.keyword(T_KW_MESSAGEDEF)
	ctx.space()
	name := ctx.ident()
	var options Options
	parseOptions(ctx, &options)

	var fields []*MessageField
	parseBody(ctx, "MESSAGEDEF", func() {
		if field, ok := parseChild(ctx, parseMessageField); ok {
			fields = append(fields, field)
		}
	})

	return ctx.finish(func(span Span, childNodes []Node) *Message {
		return &Message{
			branchNode: branchNode{span, childNodes},
			name:       name,
			options:    options,
			fields:     fields,
		}
	})
}

func parseMessageField(ctx *parseCtx[MessageField]) (*MessageField, *Error) {
	name := ctx.ident()
	ctx.space()
	fieldType := ctx.fieldType()
	ctx.space()
	var arrayLen *ArrayLen
	if ctx.peek(T_OPEN_SQUARE) {
		arrayLen, _ = parseChild(ctx, parseArrayLen)
		ctx.space()
	}
	var value Node
	if ctx.trySigil(T_EQ) {
		ctx.space()
		value = ctx.value()
	}
	var options Options
	parseOptions(ctx, &options)
	ctx.endOfLine()

	return ctx.finish(func(span Span, childNodes []Node) *MessageField {
		return &MessageField{
			branchNode: branchNode{span, childNodes},
			name:       name,
			fieldType:  fieldType,
			arrayLen:   arrayLen,
			value:      value,
			options:    options,
		}
	})
}

func parseArrayLen(ctx *parseCtx[ArrayLen]) (*ArrayLen, *Error) {
	ctx.sigil(T_OPEN_SQUARE)
	ctx.space()
	value := ctx.value()
	ctx.space()
	ctx.sigil(T_CLOSE_SQUARE)

	return ctx.finish(func(span Span, childNodes []Node) *ArrayLen {
		return &ArrayLen{
			branchNode: branchNode{span, childNodes},
			value:      value,
		}
	})
}
