// Package asm implements the two pass PRU assembler.
//
// Source files are read from an fs.FS through a small preprocessor that
// handles #include, #define and conditional assembly. Each line is split
// into label, command and operands; commands are directives, macro
// invocations or machine instructions for the pru package encoder.
//
// Pass 1 collects labels. Pass 2 assembles again with every label known and
// checks that nothing moved. Register aliasing (.struct, .assign and
// scopes) rewrites operand paths into register names before encoding.
package asm
