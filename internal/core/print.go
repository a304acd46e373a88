package core

import (
	"fmt"
	"strings"
)

// Print renders a Block as an indented dump, used by the `corec lower`
// CLI's --dump-core flag. It is not a parser round-trip
// format; it exists purely for humans and diffs.
func Print(b *Block) string {
	var sb strings.Builder
	printBlock(&sb, b, 0)
	return sb.String()
}

func indent(sb *strings.Builder, depth int) {
	sb.WriteString(strings.Repeat("  ", depth))
}

func printBlock(sb *strings.Builder, b *Block, depth int) {
	for _, d := range b.Decls {
		indent(sb, depth)
		switch d.Kind {
		case DeclLet:
			fmt.Fprintf(sb, "let %s = ", d.Binder.Name)
		case DeclUnpack:
			names := make([]string, len(d.Binders))
			for i, bd := range d.Binders {
				names[i] = bd.Name.String()
			}
			fmt.Fprintf(sb, "(%s) = ", strings.Join(names, ", "))
		}
		printExpr(sb, d.Rhs, depth)
		sb.WriteString("\n")
	}
	indent(sb, depth)
	printExpr(sb, b.Result, depth)
}

func printExpr(sb *strings.Builder, e Expr, depth int) {
	switch e.Kind {
	case ExprApp:
		printAtom(sb, e.AppExpr.Fn)
		sb.WriteString(" ")
		printAtom(sb, e.AppExpr.Arg)
	case ExprTabCon:
		sb.WriteString("[")
		for i, el := range e.TabConExpr.Elems {
			if i > 0 {
				sb.WriteString(", ")
			}
			printAtom(sb, el)
		}
		sb.WriteString("]")
	case ExprAtom:
		printAtom(sb, *e.AtomVal)
	case ExprOp:
		fmt.Fprintf(sb, "%s(", e.OpVal.Kind)
		for i, a := range e.OpVal.Atoms {
			if i > 0 {
				sb.WriteString(", ")
			}
			printAtom(sb, a)
		}
		sb.WriteString(")")
	case ExprHof:
		printHof(sb, *e.HofVal, depth)
	case ExprCase:
		sb.WriteString("case ")
		printAtom(sb, e.CaseExpr.Scrutinee)
		sb.WriteString(" of\n")
		for _, alt := range e.CaseExpr.Alts {
			indent(sb, depth+1)
			fmt.Fprintf(sb, "%s ->\n", alt.Binder.Name)
			indent(sb, depth+2)
			printBlock(sb, alt.Body, depth+2)
			sb.WriteString("\n")
		}
	}
}

func printHof(sb *strings.Builder, h Hof, depth int) {
	switch h.Kind {
	case HofFor:
		fmt.Fprintf(sb, "for[%s] ", h.Dir)
		printAtom(sb, *h.Body)
	case HofRunReader:
		fmt.Fprintf(sb, "runReader %s ", h.Region)
		printAtom(sb, *h.RegionFn)
	case HofRunWriter:
		fmt.Fprintf(sb, "runWriter %s ", h.Region)
		printAtom(sb, *h.RegionFn)
	case HofRunState:
		fmt.Fprintf(sb, "runState %s ", h.Region)
		printAtom(sb, *h.RegionFn)
	case HofWhile:
		sb.WriteString("while ")
		printAtom(sb, *h.Cond)
		sb.WriteString(" ")
		printAtom(sb, *h.Step)
	case HofLinearize:
		sb.WriteString("linearize ")
		printAtom(sb, *h.Primal)
	case HofTranspose:
		sb.WriteString("transpose ")
		printAtom(sb, *h.Primal)
	case HofTile:
		sb.WriteString("tile ")
		printAtom(sb, *h.Body)
	}
}

func printAtom(sb *strings.Builder, a Atom) {
	switch a.Kind {
	case AtomVar:
		sb.WriteString(a.VarName.String())
	case AtomLam:
		fmt.Fprintf(sb, "\\(%s:%s:%s). ", a.LamAtom.ArrowKind, a.LamAtom.Binder.Name, annString(a.LamAtom.Binder.Ann))
		var body strings.Builder
		printBlock(&body, a.LamAtom.Body, 0)
		sb.WriteString(body.String())
	case AtomArrow:
		fmt.Fprintf(sb, "(%s:%s) -%s-> %s", a.ArrowAtom.Binder.Name, annString(a.ArrowAtom.Binder.Ann), a.ArrowAtom.ArrowKind, annString(a.ArrowAtom.ResultTy))
	case AtomCon:
		if a.ConAtom.Con == ConLit {
			printLit(sb, a.ConAtom.Lit)
			return
		}
		fmt.Fprintf(sb, "%s(", a.ConAtom.Con)
		for i, arg := range a.ConAtom.Args {
			if i > 0 {
				sb.WriteString(", ")
			}
			printAtom(sb, arg)
		}
		sb.WriteString(")")
	case AtomTC:
		fmt.Fprintf(sb, "%s", a.TCAtom.TC)
		if a.TCAtom.TC == TCBaseType {
			fmt.Fprintf(sb, "<%s>", a.TCAtom.Base)
		}
	case AtomEffect:
		sb.WriteString("<effects>")
	}
}

func printLit(sb *strings.Builder, v LitVal) {
	switch v.Base {
	case BaseFloat64, BaseFloat32:
		fmt.Fprintf(sb, "%g", v.F64)
	default:
		fmt.Fprintf(sb, "%d", v.I64)
	}
}

func annString(a *Atom) string {
	if a == nil {
		return "_"
	}
	var sb strings.Builder
	printAtom(&sb, *a)
	return sb.String()
}
