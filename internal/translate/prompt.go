// Copyright (C) 2026 Transmute Contributors (oss@transmute.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package translate

import "fmt"

// BuildPrompt renders the prompt for one chunk per the prompting contract:
// converted methods/types belong to a single ConvertedCode class with no
// extra entrypoint, except for a harness chunk, which asks for a Program
// class with a canonical-format-printing Main.
func BuildPrompt(chunk Chunk, projectScope bool) string {
	if chunk.Type == ChunkHarness {
		return fmt.Sprintf(`You are an expert C# test harness writer. Generate a C# test harness for the following C# method(s).
- Place the harness code in a public class Program.
- The class must contain a public static void Main(string[] args) method.
- In Main, invoke the method(s) with representative test cases, print outputs using Console.WriteLine in the format: "Test <name>: result = <value>" or "Test <name>: completed" for void methods.
- Do not use external dependencies or frameworks. Do not generate function implementations in this prompt, just the harness code.

C# method skeleton(s):
%s
`, chunk.Content)
	}

	scopeLine := "Convert the following C code to idiomatic, high-accuracy C#."
	if projectScope {
		scopeLine = "This is part of a MULTI-FILE PROJECT - understand the relationships and dependencies with sibling chunks already converted."
	}

	return fmt.Sprintf(`You are an expert C to C# converter. %s
- Output ONLY the converted member(s): method(s), constant(s), enum, or struct. A shared ConvertedCode class wrapper is added separately - do not emit "public class ConvertedCode" or any "using" directive yourself.
- Do NOT add a Main method, entrypoint, namespace, or test harness.
- Do not include example usage, test code, or unnecessary comments.
- Use proper C# naming, pointer and struct conversion, memory management, and .NET conventions.

C code to convert:
`+"```"+`c
%s
`+"```"+`
`, scopeLine, chunk.Content)
}
