package config

// schema is the JSON schema a config file is validated against,
// after it has been converted from YAML.
const schema = `{
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "version": {"type": ["string", "number"]},
    "logFormat": {"type": "string", "enum": ["fmt", "json"]},
    "maxDepth": {"type": "integer", "minimum": 1},
    "unordered": {
      "type": "array",
      "items": {"type": "string", "minLength": 1}
    },
    "ignore": {
      "type": "array",
      "items": {
        "type": "object",
        "additionalProperties": false,
        "required": ["type"],
        "properties": {
          "type": {"type": "string", "minLength": 1},
          "members": {"$ref": "#/definitions/names"},
          "declared": {
            "type": "object",
            "additionalProperties": {"$ref": "#/definitions/names"}
          }
        }
      }
    },
    "definitions": {
      "type": "array",
      "items": {
        "type": "object",
        "additionalProperties": false,
        "required": ["type", "members"],
        "properties": {
          "type": {"type": "string", "minLength": 1},
          "members": {"$ref": "#/definitions/names"}
        }
      }
    }
  },
  "definitions": {
    "names": {
      "type": "array",
      "items": {"type": "string", "minLength": 1}
    }
  }
}`
