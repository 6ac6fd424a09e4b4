package guardrails

func builtinRules(p Policy) []Rule {
	var rules []Rule
	rules = append(rules, structuralRules(p)...)
	rules = append(rules, dimensionalRules(p)...)
	rules = append(rules, transactionRules(p)...)
	rules = append(rules, balanceRules(p)...)
	rules = append(rules, branchRules(p)...)
	rules = append(rules, periodRules(p)...)
	rules = append(rules, alignmentRules(p)...)
	return rules
}
