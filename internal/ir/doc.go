// Package ir provides the model package types shared by every modelsync layer.
//
// This package contains type definitions and serialization helpers only. All
// other internal packages import ir; ir imports nothing internal.
//
// Four package kinds exist:
//   - MetaModel: domain classes, attributes and references
//   - RepresentationMetaModel: how each class is drawn
//   - InstanceModel: diagram objects and the links between them
//   - RepresentationInstanceModel: per-object visual state
//
// Key design constraints:
//   - Cross-model references are {"$ref": "<uri>#<json-pointer>"} objects
//   - InstanceModel.Objects[i] and RepresentationInstanceModel.Objects[i]
//     describe the same diagram element (positional correspondence)
//   - Every node reachable by a pointer implements the sealed Node interface
//   - JSON field names follow the document format (camelCase)
package ir
