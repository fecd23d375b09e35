package hlir

import (
	"errors"
	"fmt"
)

// Validate checks flat code invariants.
// Returns error if any invariant is violated.
func Validate(c *Code) error {
	if c == nil {
		return nil
	}
	var errs []error
	if len(c.Seqs) == 0 || c.Seqs[ModuleSeq].Kind != SeqModule {
		errs = append(errs, errors.New("missing module sequence"))
	}
	for i, s := range c.Seqs {
		if s == nil {
			errs = append(errs, fmt.Errorf("sequence(%d): nil", i))
			continue
		}
		if int(s.ID) != i {
			errs = append(errs, fmt.Errorf("sequence(%d): id %d out of place", i, s.ID))
		}
		if i > 0 && s.Kind != SeqFunction {
			errs = append(errs, fmt.Errorf("sequence(%d): only sequence 0 may be a module", i))
		}
		if err := validateSeq(c, s); err != nil {
			errs = append(errs, fmt.Errorf("sequence(%d) %s: %w", i, s.Name, err))
		}
	}
	return errors.Join(errs...)
}

func validateSeq(c *Code, s *Seq) error {
	var errs []error
	for i := range s.Insts {
		in := &s.Insts[i]
		at := ValueID(i)

		// operands are produced by earlier instructions
		for _, op := range in.Operands() {
			if !op.IsValid() || op >= at {
				errs = append(errs, fmt.Errorf("%%%d: %s uses %s", i, in.Op, fmtValue(op)))
			}
		}

		switch in.Op {
		case OpIf, OpBr:
			if in.Op == OpBr && !in.To.IsValid() {
				errs = append(errs, fmt.Errorf("%%%d: br without target", i))
			}
			for _, t := range in.Targets() {
				if dst := s.At(t); dst == nil || !dst.Op.IsBlockStart() {
					errs = append(errs, fmt.Errorf("%%%d: %s target %s is not a block start", i, in.Op, fmtValue(t)))
				}
			}
		case OpPhiJump:
			if dst := s.At(in.Recv); dst == nil || dst.Op != OpPhiRecv {
				errs = append(errs, fmt.Errorf("%%%d: phijump target %s is not a phirecv", i, fmtValue(in.Recv)))
			}
		case OpDefn:
			if c.Seq(in.Seq) == nil || in.Seq == ModuleSeq {
				errs = append(errs, fmt.Errorf("%%%d: defn of unknown sequence(%d)", i, in.Seq))
			}
		case OpUseLocal, OpSetVar:
			if !s.Rib.Has(in.Var) {
				errs = append(errs, fmt.Errorf("%%%d: %s of a variable missing from the rib", i, in.Op))
			}
		}
	}
	return errors.Join(errs...)
}

func fmtValue(v ValueID) string {
	if !v.IsValid() {
		return "<none>"
	}
	return fmt.Sprintf("%%%d", v)
}
