package nyast

// Walk calls visit on every expression node reachable from e, including e
// itself, in preorder. Lambda and Fn bodies and Asm operands are not
// entered. Used by closure conversion to find free variables.
func Walk(e Expr, visit func(Expr)) {
	if e == nil {
		return
	}
	visit(e)
	switch n := e.(type) {
	case *Unary:
		Walk(n.X, visit)
	case *Assign:
		Walk(n.Target, visit)
		Walk(n.Value, visit)
	case *Binary:
		Walk(n.X, visit)
		Walk(n.Y, visit)
	case *Logical:
		Walk(n.X, visit)
		Walk(n.Y, visit)
	case *Ternary:
		Walk(n.Cond, visit)
		Walk(n.Then, visit)
		Walk(n.Else, visit)
	case *Call:
		Walk(n.Callee, visit)
		for _, a := range n.Args {
			Walk(a.Val, visit)
		}
	case *MemCall:
		Walk(n.Target, visit)
		for _, a := range n.Args {
			Walk(a.Val, visit)
		}
	case *Index:
		Walk(n.Target, visit)
		Walk(n.Index, visit)
	case *List:
		for _, el := range n.Elems {
			Walk(el, visit)
		}
	case *Tuple:
		for _, el := range n.Elems {
			Walk(el, visit)
		}
	case *Set:
		for _, el := range n.Elems {
			Walk(el, visit)
		}
	case *Dict:
		for _, p := range n.Pairs {
			Walk(p.Key, visit)
			Walk(p.Value, visit)
		}
	case *FString:
		for _, p := range n.Parts {
			if p.Kind == FStringExpr {
				Walk(p.E, visit)
			}
		}
	case *Match:
		Walk(n.Subject, visit)
		for _, arm := range n.Arms {
			for _, pat := range arm.Patterns {
				Walk(pat, visit)
			}
			Walk(arm.Conseq, visit)
		}
	case *Comptime:
		Walk(n.X, visit)
	}
}

// WalkStmt visits every expression reachable from a statement tree, by
// Walk's rules. Nested Func declarations are not entered.
func WalkStmt(s Stmt, visit func(Expr)) {
	if s == nil {
		return
	}
	switch n := s.(type) {
	case *Block:
		for _, st := range n.Stmts {
			WalkStmt(st, visit)
		}
	case *LabelStmt:
		WalkStmt(n.Target, visit)
	case *Var:
		Walk(n.Value, visit)
	case *ExprStmt:
		Walk(n.X, visit)
	case *If:
		Walk(n.Cond, visit)
		WalkStmt(n.Then, visit)
		WalkStmt(n.Else, visit)
	case *While:
		Walk(n.Cond, visit)
		WalkStmt(n.Body, visit)
	case *For:
		Walk(n.Iter, visit)
		WalkStmt(n.Body, visit)
	case *Return:
		Walk(n.Value, visit)
	case *Defer:
		Walk(n.Call, visit)
	case *MatchStmt:
		Walk(n.Subject, visit)
		for _, arm := range n.Arms {
			for _, pat := range arm.Patterns {
				Walk(pat, visit)
			}
			WalkStmt(arm.Body, visit)
		}
	case *Try:
		WalkStmt(n.Body, visit)
		for _, arm := range n.Arms {
			WalkStmt(arm.Body, visit)
		}
		WalkStmt(n.Finally, visit)
	}
}
