package benchmarks

import "github.com/sarchlab/rvpipe/timing/core"

// GetMicrobenchmarks returns the standard set of microbenchmarks. Each one
// targets a specific pipeline mechanism.
func GetMicrobenchmarks() []Benchmark {
	return []Benchmark{
		arithmeticSequential(),
		dependencyChain(),
		loadUseChain(),
		memorySequential(),
		functionCalls(),
		branchLoop(),
		mixedOperations(),
	}
}

// GetCoreBenchmarks returns a minimal set for quick validation: a data
// hazard, a load-use hazard, and a loop.
func GetCoreBenchmarks() []Benchmark {
	return []Benchmark{
		dependencyChain(),
		loadUseChain(),
		branchLoop(),
	}
}

// repeat returns n copies of the given lines in order.
func repeat(n int, lines ...string) []string {
	out := make([]string, 0, n*len(lines))
	for range n {
		out = append(out, lines...)
	}
	return out
}

// 1. Arithmetic Sequential - independent operations, no hazards at all
func arithmeticSequential() Benchmark {
	return Benchmark{
		Name:        "arithmetic_sequential",
		Description: "20 independent ADDI operations - ideal CPI baseline",
		Program: core.Program{
			Lines: repeat(4,
				"addi x5, x5, 1",
				"addi x6, x6, 1",
				"addi x7, x7, 1",
				"addi x8, x8, 1",
				"addi x9, x9, 1",
			),
		},
		Expect: map[string]uint32{"x5": 4, "x6": 4, "x7": 4, "x8": 4, "x9": 4},
	}
}

// 2. Dependency Chain - every instruction needs the previous result
func dependencyChain() Benchmark {
	return Benchmark{
		Name:        "dependency_chain",
		Description: "20 dependent ADDI operations - measures forwarding",
		Program: core.Program{
			Lines: repeat(20, "addi x5, x5, 1"),
		},
		Expect: map[string]uint32{"x5": 20},
	}
}

// 3. Load-Use Chain - each load is consumed by the next instruction
func loadUseChain() Benchmark {
	return Benchmark{
		Name:        "load_use_chain",
		Description: "3 loads each used immediately - measures load-use stalls",
		Program: core.Program{
			Lines: []string{
				"lw x5, 0(x0)",
				"add x6, x6, x5",
				"lw x5, 4(x0)",
				"add x6, x6, x5",
				"lw x5, 8(x0)",
				"add x6, x6, x5",
			},
			Data: map[uint32]int64{0: 1, 4: 2, 8: 3},
		},
		Expect: map[string]uint32{"x6": 6},
	}
}

// 4. Memory Sequential - stores followed by loads of the same words
func memorySequential() Benchmark {
	return Benchmark{
		Name:        "memory_sequential",
		Description: "3 stores then 3 loads and a reduction - measures memory forwarding",
		Program: core.Program{
			Lines: []string{
				"addi x5, x0, 7",
				"sw x5, 0(x0)",
				"sw x5, 4(x0)",
				"sw x5, 8(x0)",
				"lw x6, 0(x0)",
				"lw x7, 4(x0)",
				"lw x8, 8(x0)",
				"add x9, x6, x7",
				"add x9, x9, x8",
			},
		},
		Expect: map[string]uint32{"x9": 21},
	}
}

// 5. Function Calls - jal/jalr pairs, every one a redirect
func functionCalls() Benchmark {
	return Benchmark{
		Name:        "function_calls",
		Description: "2 calls to a leaf function - measures jal/jalr redirects",
		Program: core.Program{
			Lines: []string{
				"addi x10, x0, 0",
				"jal x1, 16", // call inc
				"jal x1, 12", // call inc
				"jal x0, 16", // exit
				"addi x11, x0, 99",
				"addi x10, x10, 1", // inc:
				"jalr x0, 0(x1)",
			},
		},
		Expect: map[string]uint32{"x1": 12, "x10": 2, "x11": 0},
	}
}

// 6. Branch Loop - a counted loop with a backward branch
func branchLoop() Benchmark {
	return Benchmark{
		Name:        "branch_loop",
		Description: "10-iteration counted loop - measures branch prediction",
		Program: core.Program{
			Lines: []string{
				"addi x5, x0, 10",
				"addi x6, x0, 0",
				"addi x6, x6, 2", // loop:
				"addi x5, x5, -1",
				"bne x5, x0, -8",
				"addi x7, x6, 1",
			},
		},
		Expect: map[string]uint32{"x5": 0, "x6": 20, "x7": 21},
	}
}

// 7. Mixed Operations - shifts, logic, and compares in a dependent chain
func mixedOperations() Benchmark {
	return Benchmark{
		Name:        "mixed_operations",
		Description: "Mix of LUI/shift/logic/compare operations",
		Program: core.Program{
			Lines: []string{
				"lui x5, 1",
				"addi x5, x5, -1",
				"slli x6, x5, 4",
				"xor x7, x6, x5",
				"srai x8, x7, 2",
				"sub x9, x8, x5",
				"slt x10, x9, x5",
				"and x11, x7, x5",
				"or x12, x11, x6",
			},
		},
		Expect: map[string]uint32{
			"x5":  0x0FFF,
			"x6":  0xFFF0,
			"x7":  0xF00F,
			"x8":  0x3C03,
			"x9":  11268,
			"x10": 0,
			"x11": 0x000F,
			"x12": 0xFFFF,
		},
	}
}
