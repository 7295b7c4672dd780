// Package models defines the core domain models for the fee bill generator.
//
// # Models
//
//   - StudentData: the submitted student form (name, class, roll number, bill type)
//   - FeeData: one amount per fee component, always within [0, baseline]
//   - FeeComponent: the closed set of fee categories (academic, uniform, ...)
//   - BillType: how fee components are grouped into bill lines
//   - BillLineItem / Summary: the aggregated, render-ready view of a bill
//
// # Design Principles
//
// 1. **Value types**: StudentData and FeeData are copied, never shared. Every
// update returns a new value so callers can keep the previous snapshot.
// 2. **Closed enumerations**: fee components are struct fields, not map keys,
// so an unknown component name can only come from parsing user input.
// 3. **No persistence**: models carry no IDs or timestamps; a bill lives for
// one request.
package models
